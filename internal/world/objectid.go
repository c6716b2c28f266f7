package world

import "sync/atomic"

// ObjectIDGenerator выдаёт уникальные id объектам на земле.
//
// Диапазоны:
//
//	0x00000000 - 0x0FFFFFFF: зарезервировано (0 = невалидный объект)
//	0x10000000 - 0x1FFFFFFF: death piles
//	0x20000000 - 0x2FFFFFFF: pickups
type ObjectIDGenerator struct {
	nextPileID   atomic.Uint32
	nextPickupID atomic.Uint32
}

// NewObjectIDGenerator создаёт генератор.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextPileID.Store(0x10000000)
	gen.nextPickupID.Store(0x20000000)
	return gen
}

// NextPileID возвращает следующий id кучки. Thread-safe.
func (g *ObjectIDGenerator) NextPileID() uint32 {
	return g.nextPileID.Add(1)
}

// NextPickupID возвращает следующий id pickup. Thread-safe.
func (g *ObjectIDGenerator) NextPickupID() uint32 {
	return g.nextPickupID.Add(1)
}

// IsPileID reports whether id belongs to the death pile range.
func IsPileID(id uint32) bool {
	return id >= 0x10000000 && id < 0x20000000
}

// IsPickupID reports whether id belongs to the pickup range.
func IsPickupID(id uint32) bool {
	return id >= 0x20000000 && id < 0x30000000
}
