package loot

import "math/rand/v2"

// newRand создаёт источник случайности. С seed результат воспроизводим.
func newRand(seed *int64) *rand.Rand {
	if seed != nil {
		s := uint64(*seed)
		return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Seed — хелпер для RollOptions.Seed.
func Seed(v int64) *int64 {
	return &v
}

// drawIndex выбирает индекс пропорционально весу.
// Записи с весом <= 0 не участвуют. Возвращает -1, если суммарный вес <= 0.
func drawIndex(r *rand.Rand, weights []float64) int {
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	x := r.Float64() * total
	var acc float64
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		acc += w
		if x < acc {
			return i
		}
	}
	// x может сравняться с total из-за округления
	return last
}

// rollRange — равномерное значение в [a, b]; границы меняются местами, если a > b.
func rollRange(r *rand.Rand, a, b float64) float64 {
	lo, hi := min(a, b), max(a, b)
	return lo + (hi-lo)*r.Float64()
}

// rollIntRange — равномерное целое в [lo, hi]. hi <= lo → lo.
func rollIntRange(r *rand.Rand, lo, hi int32) int32 {
	if hi <= lo {
		return lo
	}
	return lo + int32(r.IntN(int(hi-lo)+1))
}
