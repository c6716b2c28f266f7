package stats

import (
	"log/slog"
	"math"
	"sync"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// LevelUpFunc вызывается, когда навык переходит на новый уровень.
type LevelUpFunc func(stat model.StatType, level int32)

// Progression хранит опыт и уровни навыков персонажа.
// Уровень всегда выводится из опыта по ExperienceCurve.
type Progression struct {
	mu        sync.RWMutex
	leveled   model.LeveledStats
	curve     data.ExperienceCurve
	listeners []LevelUpFunc
}

// NewProgression создаёт прогрессию с навыками на уровне 1.
func NewProgression(curve data.ExperienceCurve) *Progression {
	return &Progression{
		leveled: model.NewLeveledStats(),
		curve:   curve,
	}
}

// Load заменяет прогрессию сохранённой. Уровни пересчитываются из опыта.
func (p *Progression) Load(saved model.LeveledStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.leveled = model.NewLeveledStats()
	for _, st := range model.PrimaryStatTypes {
		xp := max(0, saved.Skill(st).XP)
		p.leveled.SetSkill(st, model.SkillProgress{Level: p.curve.LevelForXP(xp), XP: xp})
	}
}

// Snapshot возвращает копию прогрессии.
func (p *Progression) Snapshot() model.LeveledStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.leveled
}

// Level возвращает уровень навыка (минимум 1 для primary stats).
func (p *Progression) Level(stat model.StatType) int32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return max(1, p.leveled.Skill(stat).Level)
}

// XP возвращает накопленный опыт навыка.
func (p *Progression) XP(stat model.StatType) int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.leveled.Skill(stat).XP
}

// OnLevelUp регистрирует слушателя повышения уровня.
func (p *Progression) OnLevelUp(fn LevelUpFunc) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// AddXp добавляет опыт навыку.
// Неположительный amount и не-primary stat игнорируются. Опыт насыщается на MaxInt64.
//
// Returns:
//   - level: уровень навыка после начисления
//   - leveledUp: true если уровень вырос
func (p *Progression) AddXp(stat model.StatType, amount int64) (level int32, leveledUp bool) {
	if amount <= 0 || !stat.IsPrimary() {
		return 0, false
	}

	p.mu.Lock()
	skill := p.leveled.Skill(stat)
	before := max(1, skill.Level)

	if skill.XP > math.MaxInt64-amount {
		skill.XP = math.MaxInt64
	} else {
		skill.XP += amount
	}
	skill.Level = max(before, p.curve.LevelForXP(skill.XP))
	p.leveled.SetSkill(stat, skill)

	listeners := make([]LevelUpFunc, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	if skill.Level <= before {
		return skill.Level, false
	}

	for _, fn := range listeners {
		notifyLevelUp(fn, stat, skill.Level)
	}
	return skill.Level, true
}

// notifyLevelUp изолирует панику слушателя от игрового цикла.
func notifyLevelUp(fn LevelUpFunc, stat model.StatType, level int32) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("level-up listener panicked",
				"stat", stat.String(),
				"level", level,
				"panic", r)
		}
	}()
	fn(stat, level)
}
