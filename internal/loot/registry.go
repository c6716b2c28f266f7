package loot

import (
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/udisondev/lootforge/internal/data"
	"github.com/udisondev/lootforge/internal/model"
)

// ErrInstanceExists — instance с таким id уже зарегистрирован.
var ErrInstanceExists = errors.New("instance already registered")

// Registry хранит rolled instances и резолвит ItemRef в определения каталога.
//
// Владение явное: instance живёт, пока его не освободят через Release.
// Зарегистрированный instance не модифицируется.
type Registry struct {
	catalog   *data.Catalog
	instances map[string]*model.ItemInstance

	mu sync.RWMutex
}

// NewRegistry создаёт пустой реестр поверх каталога.
func NewRegistry(catalog *data.Catalog) *Registry {
	return &Registry{
		catalog:   catalog,
		instances: make(map[string]*model.ItemInstance),
	}
}

// Catalog возвращает каталог реестра.
func (r *Registry) Catalog() *data.Catalog {
	return r.catalog
}

// newInstanceID — uuid v4 в hex без дефисов.
func newInstanceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// RegisterRolledInstance регистрирует instance под новым уникальным id.
// nil instance → нулевая ссылка.
func (r *Registry) RegisterRolledInstance(inst *model.ItemInstance) model.ItemRef {
	if inst == nil {
		return model.ItemRef{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := newInstanceID()
	for _, taken := r.instances[id]; taken; _, taken = r.instances[id] {
		id = newInstanceID()
	}
	r.instances[id] = inst
	return model.RolledRef(id)
}

// RegisterWithID регистрирует instance под известным id (загрузка из БД).
func (r *Registry) RegisterWithID(id string, inst *model.ItemInstance) (model.ItemRef, error) {
	ref := model.RolledRef(id)
	if ref.IsZero() || inst == nil {
		return model.ItemRef{}, fmt.Errorf("registering instance %q: %w", id, data.ErrEmptyID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[ref.ID()]; exists {
		return model.ItemRef{}, fmt.Errorf("registering instance %q: %w", id, ErrInstanceExists)
	}
	r.instances[ref.ID()] = inst
	return ref, nil
}

// TryGetRolledInstance возвращает instance для rolled ссылки.
func (r *Registry) TryGetRolledInstance(ref model.ItemRef) (*model.ItemInstance, bool) {
	if !ref.IsRolled() {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[ref.ID()]
	return inst, ok
}

// TryGetItem резолвит ссылку в base item.
// Rolled ссылка резолвится через BaseItemID своего instance.
func (r *Registry) TryGetItem(ref model.ItemRef) (*data.ItemDef, bool) {
	if r.catalog == nil {
		return nil, false
	}
	switch ref.Kind() {
	case model.RefStatic:
		return r.catalog.Item(ref.ID())
	case model.RefRolled:
		inst, ok := r.TryGetRolledInstance(ref)
		if !ok {
			return nil, false
		}
		return r.catalog.Item(inst.BaseItemID)
	default:
		return nil, false
	}
}

// TryResolveDisplay возвращает имя и иконку для UI.
// Для rolled instance имя дополняется названием редкости.
func (r *Registry) TryResolveDisplay(ref model.ItemRef) (name, icon string, ok bool) {
	def, ok := r.TryGetItem(ref)
	if !ok {
		return "", "", false
	}
	name = def.DisplayName()
	if inst, rolled := r.TryGetRolledInstance(ref); rolled {
		if rarity, found := r.catalog.Rarity(inst.RarityID); found && rarity.Name != "" {
			name = rarity.Name + " " + name
		}
	}
	return name, def.Icon, true
}

// StatMods резолвит модификаторы для ссылки: rolled → GetAllStatMods, static → base stats.
// Неизвестная ссылка → nil (нет вклада).
func (r *Registry) StatMods(ref model.ItemRef) []model.StatModifier {
	if r.catalog == nil {
		return nil
	}
	switch ref.Kind() {
	case model.RefRolled:
		inst, ok := r.TryGetRolledInstance(ref)
		if !ok {
			return nil
		}
		return GetAllStatMods(r.catalog, inst)
	case model.RefStatic:
		def, ok := r.catalog.Item(ref.ID())
		if !ok {
			return nil
		}
		return append([]model.StatModifier(nil), def.BaseStats...)
	default:
		return nil
	}
}

// Release освобождает rolled instance. Возвращает false, если его не было.
func (r *Registry) Release(ref model.ItemRef) bool {
	if !ref.IsRolled() {
		return false
	}
	r.mu.Lock()
	_, ok := r.instances[ref.ID()]
	delete(r.instances, ref.ID())
	r.mu.Unlock()

	if ok {
		slog.Debug("rolled instance released", "ref", ref.String())
	}
	return ok
}

// Len возвращает число зарегистрированных instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// Snapshot возвращает копию id → instance (для сохранения).
func (r *Registry) Snapshot() map[string]*model.ItemInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.instances)
}
