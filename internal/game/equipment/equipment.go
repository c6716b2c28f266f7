package equipment

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// Inventory — источник предметов для equip/unequip.
type Inventory interface {
	Has(ref model.ItemRef, qty int32) bool
	Add(ref model.ItemRef, qty int32)
	TryConsume(ref model.ItemRef, qty int32) bool
}

// ItemResolver резолвит ссылку (static или rolled) в base item.
type ItemResolver interface {
	TryGetItem(ref model.ItemRef) (*data.ItemDef, bool)
}

// Сообщения об ошибках экипировки.
const (
	MsgNoItem         = "No item selected."
	MsgNoInventory    = "No inventory."
	MsgNotEquippable  = "That item is not equippable."
	MsgInvalidSlot    = "Item cannot be equipped (invalid slot config)."
	MsgConsumeFailed  = "Failed to remove item from inventory."
	msgNotInInventory = "You don't have '%s'."
)

// Equipment — слоты экипировки персонажа.
//
// Двуручный предмет занимает LeftHand и RightHand одной и той же ссылкой.
// Каждая успешная мутация вызывает наблюдателей ровно один раз.
type Equipment struct {
	slots    [model.SlotCount]model.ItemRef
	resolver ItemResolver

	observers  []observer
	nextObsID  int
	mu         sync.RWMutex
	observerMu sync.Mutex
}

type observer struct {
	id int
	fn func()
}

// New создаёт пустую экипировку.
func New(resolver ItemResolver) *Equipment {
	return &Equipment{resolver: resolver}
}

// Get возвращает ссылку в слоте (нулевая, если пусто).
func (e *Equipment) Get(slot model.EquipmentSlot) model.ItemRef {
	if !slot.Valid() {
		return model.ItemRef{}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.slots[slot]
}

// Set записывает ссылку в слот без проверок и без обмена с инвентарём.
// Используется загрузкой сохранений и dev-инструментами.
func (e *Equipment) Set(slot model.EquipmentSlot, ref model.ItemRef) bool {
	if !slot.Valid() {
		return false
	}
	e.mu.Lock()
	e.slots[slot] = ref
	e.mu.Unlock()

	e.notify()
	return true
}

// Load заменяет всё содержимое слотов одним изменением.
//
// Двуручный предмет, сохранённый только в одной руке, занимает обе руки.
// Предмет, вытесненный из второй руки, возвращается вызывающему.
// Если двуручные предметы лежат в обеих руках, остаётся тот, что в правой.
func (e *Equipment) Load(slots map[model.EquipmentSlot]model.ItemRef) (displaced []model.ItemRef) {
	e.mu.Lock()
	e.slots = [model.SlotCount]model.ItemRef{}
	for slot, ref := range slots {
		if slot.Valid() {
			e.slots[slot] = ref
		}
	}
	for _, hand := range [...]model.EquipmentSlot{model.SlotRightHand, model.SlotLeftHand} {
		ref := e.slots[hand]
		if def, ok := e.resolve(ref); !ok || !def.IsTwoHanded() {
			continue
		}
		other := hand.Other()
		if prev := e.slots[other]; !prev.IsZero() && prev != ref {
			displaced = append(displaced, prev)
		}
		e.slots[other] = ref
		break
	}
	e.mu.Unlock()

	if len(displaced) > 0 {
		slog.Warn("two-handed item repaired on load", "displaced", len(displaced))
	}
	e.notify()
	return displaced
}

// Snapshot возвращает занятые слоты.
func (e *Equipment) Snapshot() map[model.EquipmentSlot]model.ItemRef {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[model.EquipmentSlot]model.ItemRef)
	for _, slot := range model.EquipSlots {
		if ref := e.slots[slot]; !ref.IsZero() {
			out[slot] = ref
		}
	}
	return out
}

// Subscribe добавляет наблюдателя изменений. Возвращает функцию отписки.
func (e *Equipment) Subscribe(fn func()) (unsubscribe func()) {
	e.observerMu.Lock()
	defer e.observerMu.Unlock()

	e.nextObsID++
	id := e.nextObsID
	e.observers = append(e.observers, observer{id: id, fn: fn})

	return func() {
		e.observerMu.Lock()
		defer e.observerMu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

func (e *Equipment) notify() {
	e.observerMu.Lock()
	obs := make([]observer, len(e.observers))
	copy(obs, e.observers)
	e.observerMu.Unlock()

	for _, o := range obs {
		o.fn()
	}
}

// TryEquip надевает одну единицу ref из инвентаря.
//
// Порядок:
//  1. валидация и целевой слот (двуручное → обе руки, offhand → левая, одноручное → правая)
//  2. перенаправление: занятое кольцо/рука → свободный парный слот
//  3. списание единицы из инвентаря (при неудаче ничего не меняется)
//  4. снятие конфликтующих предметов в инвентарь и запись ссылки
//
// Returns:
//   - success: true если предмет надет
//   - message: причина отказа или подтверждение
func (e *Equipment) TryEquip(inv Inventory, ref model.ItemRef) (bool, string) {
	if ref.IsZero() {
		return false, MsgNoItem
	}
	if inv == nil {
		return false, MsgNoInventory
	}

	def, resolved := e.resolve(ref)
	if !inv.Has(ref, 1) {
		name := ref.String()
		if resolved {
			name = def.DisplayName()
		}
		return false, fmt.Sprintf(msgNotInInventory, name)
	}
	if !resolved || !def.Equippable() {
		return false, MsgNotEquippable
	}

	primary, twoHanded := targetSlot(def)
	if !primary.Valid() {
		return false, MsgInvalidSlot
	}

	e.mu.Lock()

	if !twoHanded {
		other := primary.Other()
		if (primary.IsRing() || primary.IsHand()) &&
			!e.slots[primary].IsZero() && e.slots[other].IsZero() {
			primary = other
		}
	}

	if !inv.TryConsume(ref, 1) {
		e.mu.Unlock()
		return false, MsgConsumeFailed
	}

	var returned []model.ItemRef
	if twoHanded {
		returned = e.clearHandsLocked()
	} else {
		returned = e.clearSlotLocked(primary)
	}

	e.slots[primary] = ref
	if twoHanded {
		e.slots[model.SlotLeftHand] = ref
		e.slots[model.SlotRightHand] = ref
	}
	e.mu.Unlock()

	for _, r := range returned {
		inv.Add(r, 1)
	}

	slog.Debug("item equipped",
		"item", ref.String(),
		"slot", primary.String(),
		"two_handed", twoHanded,
		"returned", len(returned))

	e.notify()
	return true, fmt.Sprintf("Equipped %s.", def.DisplayName())
}

// TryUnequip снимает предмет из слота и возвращает его в инвентарь.
// Двуручный предмет снимается с обеих рук одним действием.
func (e *Equipment) TryUnequip(inv Inventory, slot model.EquipmentSlot) bool {
	if inv == nil || !slot.Valid() {
		return false
	}

	e.mu.Lock()
	if e.slots[slot].IsZero() {
		e.mu.Unlock()
		return false
	}
	returned := e.clearSlotLocked(slot)
	e.mu.Unlock()

	for _, r := range returned {
		inv.Add(r, 1)
	}

	e.notify()
	return true
}

// Remove снимает до amount единиц ref без возврата в инвентарь (выпадение при смерти).
// Сначала обычные слоты, затем руки; двуручный предмет — одна единица.
func (e *Equipment) Remove(ref model.ItemRef, amount int32) int32 {
	if ref.IsZero() || amount <= 0 {
		return 0
	}

	var removed int32

	e.mu.Lock()
	for _, slot := range model.EquipSlots {
		if removed >= amount {
			break
		}
		if slot.IsHand() || e.slots[slot] != ref {
			continue
		}
		e.slots[slot] = model.ItemRef{}
		removed++
	}

	if removed < amount && e.twoHandedInHandsLocked() && e.slots[model.SlotRightHand] == ref {
		e.slots[model.SlotLeftHand] = model.ItemRef{}
		e.slots[model.SlotRightHand] = model.ItemRef{}
		removed++
	}
	for _, slot := range [...]model.EquipmentSlot{model.SlotRightHand, model.SlotLeftHand} {
		if removed >= amount {
			break
		}
		if e.slots[slot] == ref {
			e.slots[slot] = model.ItemRef{}
			removed++
		}
	}
	e.mu.Unlock()

	if removed > 0 {
		e.notify()
	}
	return removed
}

// Counts возвращает логическое количество надетых единиц по ссылке.
// Двуручный предмет в обеих руках считается одной единицей.
func (e *Equipment) Counts() map[model.ItemRef]int32 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[model.ItemRef]int32)
	for _, ref := range e.equippedRefsLocked() {
		out[ref]++
	}
	return out
}

// EquippedRefs возвращает надетые ссылки в порядке слотов.
// Двуручный предмет в обеих руках встречается один раз.
func (e *Equipment) EquippedRefs() []model.ItemRef {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.equippedRefsLocked()
}

// EquippedPiece — надетый логический предмет и слот, в котором он учтён.
type EquippedPiece struct {
	Slot model.EquipmentSlot
	Ref  model.ItemRef
}

// Pieces возвращает надетые предметы со слотами (двуручный — один раз, в RightHand).
func (e *Equipment) Pieces() []EquippedPiece {
	e.mu.RLock()
	defer e.mu.RUnlock()

	shared := e.twoHandedInHandsLocked()
	out := make([]EquippedPiece, 0, len(model.EquipSlots))
	for _, slot := range model.EquipSlots {
		ref := e.slots[slot]
		if ref.IsZero() || (shared && slot == model.SlotLeftHand) {
			continue
		}
		out = append(out, EquippedPiece{Slot: slot, Ref: ref})
	}
	return out
}

// IsTwoHandedEquipped reports whether both hands hold one two-handed item.
func (e *Equipment) IsTwoHandedEquipped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.twoHandedInHandsLocked()
}

func (e *Equipment) equippedRefsLocked() []model.ItemRef {
	shared := e.twoHandedInHandsLocked()
	out := make([]model.ItemRef, 0, len(model.EquipSlots))
	for _, slot := range model.EquipSlots {
		ref := e.slots[slot]
		if ref.IsZero() || (shared && slot == model.SlotLeftHand) {
			continue
		}
		out = append(out, ref)
	}
	return out
}

// twoHandedInHandsLocked: обе руки держат одну ссылку и это двуручный предмет.
// Если ссылка не резолвится, одинаковая ссылка в обеих руках считается двуручным.
func (e *Equipment) twoHandedInHandsLocked() bool {
	left, right := e.slots[model.SlotLeftHand], e.slots[model.SlotRightHand]
	if left.IsZero() || left != right {
		return false
	}
	if def, ok := e.resolve(left); ok {
		return def.IsTwoHanded()
	}
	return true
}

// clearSlotLocked освобождает слот и возвращает снятые ссылки.
// Рука с двуручным предметом освобождает обе руки (одна единица).
func (e *Equipment) clearSlotLocked(slot model.EquipmentSlot) []model.ItemRef {
	occupant := e.slots[slot]
	if occupant.IsZero() {
		return nil
	}
	if slot.IsHand() && e.twoHandedInHandsLocked() {
		e.slots[model.SlotLeftHand] = model.ItemRef{}
		e.slots[model.SlotRightHand] = model.ItemRef{}
		return []model.ItemRef{occupant}
	}
	e.slots[slot] = model.ItemRef{}
	return []model.ItemRef{occupant}
}

// clearHandsLocked освобождает обе руки.
func (e *Equipment) clearHandsLocked() []model.ItemRef {
	left, right := e.slots[model.SlotLeftHand], e.slots[model.SlotRightHand]
	shared := e.twoHandedInHandsLocked()

	e.slots[model.SlotLeftHand] = model.ItemRef{}
	e.slots[model.SlotRightHand] = model.ItemRef{}

	var out []model.ItemRef
	if !right.IsZero() {
		out = append(out, right)
	}
	if !left.IsZero() && !shared {
		out = append(out, left)
	}
	return out
}

func (e *Equipment) resolve(ref model.ItemRef) (*data.ItemDef, bool) {
	if e.resolver == nil || ref.IsZero() {
		return nil, false
	}
	return e.resolver.TryGetItem(ref)
}

// targetSlot возвращает основной слот предмета и признак двуручности.
func targetSlot(def *data.ItemDef) (model.EquipmentSlot, bool) {
	switch {
	case def.IsTwoHanded():
		return model.SlotRightHand, true
	case def.Handedness == model.Offhand:
		return model.SlotLeftHand, false
	case def.Handedness == model.OneHanded:
		return model.SlotRightHand, false
	default:
		return def.Slot, false
	}
}
