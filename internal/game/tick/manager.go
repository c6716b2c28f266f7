package tick

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval — период игрового тика по умолчанию.
const DefaultInterval = 100 * time.Millisecond

// Ticker — объект, обновляемый каждый тик.
type Ticker interface {
	Tick()
}

// Manager вызывает Tick у всех зарегистрированных объектов из одной горутины.
type Manager struct {
	entries    sync.Map // map[int64]Ticker — id → объект
	hooks      []func(now time.Time)
	interval   time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
	entryCount atomic.Int32
	tickCount  atomic.Uint64
}

// NewManager создаёт менеджер. interval <= 0 → DefaultInterval.
func NewManager(interval time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Manager{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Register регистрирует объект. Повторная регистрация id заменяет объект.
func (m *Manager) Register(id int64, t Ticker) {
	if _, loaded := m.entries.Swap(id, t); !loaded {
		m.entryCount.Add(1)
	}
	slog.Debug("ticker registered", "id", id)
}

// Unregister снимает объект с обновления.
func (m *Manager) Unregister(id int64) {
	if _, ok := m.entries.LoadAndDelete(id); !ok {
		return
	}
	m.entryCount.Add(-1)
	slog.Debug("ticker unregistered", "id", id)
}

// OnTick добавляет функцию, вызываемую после объектов каждый тик.
// Вызывать до Start.
func (m *Manager) OnTick(fn func(now time.Time)) {
	m.hooks = append(m.hooks, fn)
}

// Start запускает цикл тиков (блокирует до отмены контекста или Stop).
func (m *Manager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("tick manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("tick manager stopping", "ticks", m.tickCount.Load())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("tick manager stopped", "ticks", m.tickCount.Load())
			return nil

		case now := <-ticker.C:
			m.TickAll(now)
		}
	}
}

// Stop останавливает цикл. Повторный вызов безопасен.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// TickAll выполняет один тик синхронно.
// Паника объекта логируется и не останавливает цикл.
func (m *Manager) TickAll(now time.Time) {
	m.entries.Range(func(key, value any) bool {
		runSafe(key, value.(Ticker).Tick)
		return true
	})
	for _, fn := range m.hooks {
		runSafe("hook", func() { fn(now) })
	}
	m.tickCount.Add(1)
}

// Count returns the number of registered tickers.
func (m *Manager) Count() int {
	return int(m.entryCount.Load())
}

// Ticks returns the number of completed ticks.
func (m *Manager) Ticks() uint64 {
	return m.tickCount.Load()
}

// Get возвращает объект по id.
func (m *Manager) Get(id int64) (Ticker, error) {
	value, ok := m.entries.Load(id)
	if !ok {
		return nil, fmt.Errorf("ticker not found for id %d", id)
	}
	return value.(Ticker), nil
}

func runSafe(who any, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tick panicked", "ticker", who, "panic", r)
		}
	}()
	fn()
}
