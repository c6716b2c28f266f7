package world

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/lootforge/internal/game/deathdrop"
	"github.com/udisondev/lootforge/internal/model"
)

// Receiver принимает подобранный предмет (обычно инвентарь).
type Receiver interface {
	Add(ref model.ItemRef, qty int32)
}

// Pickup — предмет на земле. При подборе возвращается в инвентарь.
type Pickup struct {
	id     uint32
	ref    model.ItemRef
	amount int32
	loc    model.Location
	pile   *DeathPile
	// expiresAt нулевой для pickups внутри кучки: их срок задаёт кучка.
	expiresAt time.Time
}

func (p *Pickup) ID() uint32               { return p.id }
func (p *Pickup) Ref() model.ItemRef       { return p.ref }
func (p *Pickup) Amount() int32            { return p.amount }
func (p *Pickup) Location() model.Location { return p.loc }

// DeathPile — кучка предметов, выпавших при смерти персонажа.
// Считается подобранной, когда подобран последний pickup.
type DeathPile struct {
	id        uint32
	loc       model.Location
	ground    *Ground
	pickups   []*Pickup
	looted    bool
	destroyed bool
	expiresAt time.Time
}

func (p *DeathPile) ID() uint32               { return p.id }
func (p *DeathPile) Location() model.Location { return p.loc }

// Items возвращает ещё не подобранные записи.
func (p *DeathPile) Items() []deathdrop.DroppedItem {
	p.ground.mu.RLock()
	defer p.ground.mu.RUnlock()

	out := make([]deathdrop.DroppedItem, 0, len(p.pickups))
	for _, pk := range p.pickups {
		out = append(out, deathdrop.DroppedItem{Ref: pk.ref, Amount: pk.amount})
	}
	return out
}

// Pickups возвращает ещё не подобранные pickups кучки.
func (p *DeathPile) Pickups() []*Pickup {
	p.ground.mu.RLock()
	defer p.ground.mu.RUnlock()
	return slices.Clone(p.pickups)
}

// Looted reports whether every pickup of the pile was collected.
func (p *DeathPile) Looted() bool {
	p.ground.mu.RLock()
	defer p.ground.mu.RUnlock()
	return p.looted
}

// Active reports whether the pile is still on the ground with items left.
func (p *DeathPile) Active() bool {
	p.ground.mu.RLock()
	defer p.ground.mu.RUnlock()
	return !p.looted && !p.destroyed
}

// Destroy убирает кучку с земли вместе с неподобранными предметами.
// Rolled instances освобождает вызывающий (Resolver или Ground.Tick).
func (p *DeathPile) Destroy() {
	p.ground.mu.Lock()
	defer p.ground.mu.Unlock()
	p.ground.removePileLocked(p)
}

// Ground хранит кучки и pickups, лежащие в мире.
type Ground struct {
	ids      *ObjectIDGenerator
	ttl      time.Duration
	releaser deathdrop.Releaser
	now      func() time.Time

	mu      sync.RWMutex
	piles   map[uint32]*DeathPile
	pickups map[uint32]*Pickup
}

// NewGround создаёт хранилище. ttl <= 0 — объекты не исчезают сами.
// releaser (может быть nil) освобождает rolled instances исчезнувших предметов.
func NewGround(ttl time.Duration, releaser deathdrop.Releaser) *Ground {
	return &Ground{
		ids:      NewObjectIDGenerator(),
		ttl:      ttl,
		releaser: releaser,
		now:      time.Now,
		piles:    make(map[uint32]*DeathPile),
		pickups:  make(map[uint32]*Pickup),
	}
}

// SpawnPile кладёт кучку в точку смерти: по pickup на каждую запись.
func (g *Ground) SpawnPile(at model.Location, items []deathdrop.DroppedItem) deathdrop.Pile {
	g.mu.Lock()
	defer g.mu.Unlock()

	pile := &DeathPile{
		id:        g.ids.NextPileID(),
		loc:       at,
		ground:    g,
		expiresAt: g.expiryLocked(),
	}
	for _, it := range items {
		if it.Ref.IsZero() {
			continue
		}
		pk := &Pickup{
			id:     g.ids.NextPickupID(),
			ref:    it.Ref,
			amount: max(1, it.Amount),
			loc:    at,
			pile:   pile,
		}
		pile.pickups = append(pile.pickups, pk)
		g.pickups[pk.id] = pk
	}
	if len(pile.pickups) == 0 {
		pile.looted = true
	}
	g.piles[pile.id] = pile

	slog.Debug("death pile spawned",
		"pile", pile.id,
		"location", at.String(),
		"entries", len(pile.pickups))
	return pile
}

// SpawnPickup кладёт одиночный предмет на землю (дроп с врага).
func (g *Ground) SpawnPickup(at model.Location, ref model.ItemRef, amount int32) *Pickup {
	if ref.IsZero() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	pk := &Pickup{
		id:        g.ids.NextPickupID(),
		ref:       ref,
		amount:    max(1, amount),
		loc:       at,
		expiresAt: g.expiryLocked(),
	}
	g.pickups[pk.id] = pk
	return pk
}

// Collect подбирает pickup в recv.
// Последний pickup кучки помечает её подобранной и убирает с земли.
func (g *Ground) Collect(pickupID uint32, recv Receiver) bool {
	if recv == nil {
		return false
	}

	g.mu.Lock()
	pk, ok := g.pickups[pickupID]
	if !ok {
		g.mu.Unlock()
		return false
	}
	delete(g.pickups, pickupID)

	if pile := pk.pile; pile != nil {
		pile.pickups = slices.DeleteFunc(pile.pickups, func(p *Pickup) bool { return p == pk })
		if len(pile.pickups) == 0 {
			pile.looted = true
			delete(g.piles, pile.id)
		}
	}
	g.mu.Unlock()

	recv.Add(pk.ref, pk.amount)
	return true
}

// PickupsNear возвращает pickups в радиусе от точки, ближайшие первыми.
func (g *Ground) PickupsNear(at model.Location, radius int32) []*Pickup {
	r2 := int64(radius) * int64(radius)

	g.mu.RLock()
	var out []*Pickup
	for _, pk := range g.pickups {
		if pk.loc.DistanceSquared(at) <= r2 {
			out = append(out, pk)
		}
	}
	g.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Pickup) int {
		return cmp.Or(
			cmp.Compare(a.loc.DistanceSquared(at), b.loc.DistanceSquared(at)),
			cmp.Compare(a.id, b.id),
		)
	})
	return out
}

// Pile возвращает кучку по id.
func (g *Ground) Pile(id uint32) (*DeathPile, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.piles[id]
	return p, ok
}

// Counts возвращает число кучек и pickups на земле.
func (g *Ground) Counts() (piles, pickups int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.piles), len(g.pickups)
}

// Tick убирает просроченные кучки и pickups.
// Rolled instances исчезнувших предметов освобождаются в реестре.
// Возвращает число убранных объектов.
func (g *Ground) Tick(now time.Time) int {
	var expired []*Pickup
	removed := 0

	g.mu.Lock()
	for _, pile := range g.piles {
		if pile.expiresAt.IsZero() || now.Before(pile.expiresAt) {
			continue
		}
		expired = append(expired, pile.pickups...)
		g.removePileLocked(pile)
		removed++
	}
	for id, pk := range g.pickups {
		if pk.pile != nil || pk.expiresAt.IsZero() || now.Before(pk.expiresAt) {
			continue
		}
		expired = append(expired, pk)
		delete(g.pickups, id)
		removed++
	}
	g.mu.Unlock()

	if g.releaser != nil {
		for _, pk := range expired {
			if pk.ref.IsRolled() {
				g.releaser.Release(pk.ref)
			}
		}
	}
	if removed > 0 {
		slog.Info("ground objects expired", "removed", removed, "items_lost", len(expired))
	}
	return removed
}

func (g *Ground) removePileLocked(pile *DeathPile) {
	if pile.destroyed {
		return
	}
	pile.destroyed = true
	for _, pk := range pile.pickups {
		delete(g.pickups, pk.id)
	}
	delete(g.piles, pile.id)
}

func (g *Ground) expiryLocked() time.Time {
	if g.ttl <= 0 {
		return time.Time{}
	}
	return g.now().Add(g.ttl)
}
