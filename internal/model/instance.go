package model

import "slices"

// AffixRoll — одно выпавшее свойство instance.
type AffixRoll struct {
	AffixID string
	Value   float64
}

// ItemInstance — конкретный rolled экземпляр base item.
//
// Instance неизменяем после roll: реестр отдаёт указатель, но никто его не модифицирует.
type ItemInstance struct {
	BaseItemID string
	RarityID   string
	ItemLevel  int32
	BaseScalar float64
	Affixes    []AffixRoll
}

// HasAffix reports whether the instance already carries affixID.
func (inst *ItemInstance) HasAffix(affixID string) bool {
	return slices.ContainsFunc(inst.Affixes, func(a AffixRoll) bool {
		return a.AffixID == affixID
	})
}

// Clone returns a deep copy.
func (inst *ItemInstance) Clone() *ItemInstance {
	if inst == nil {
		return nil
	}
	c := *inst
	c.Affixes = slices.Clone(inst.Affixes)
	return &c
}
