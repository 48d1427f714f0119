package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"gofinances/internal/format"
)

// plainFormatter renders values without locale data so tests can parse
// them back.
type plainFormatter struct{}

func (plainFormatter) Currency(d decimal.Decimal) string { return d.StringFixed(2) }
func (plainFormatter) ShortDate(t time.Time) string      { return t.Format("2006-01-02") }
func (plainFormatter) LongDate(t time.Time) string       { return t.Format("Jan 2") }
func (plainFormatter) Locale() string                    { return "plain" }

func (plainFormatter) Caption(kind format.CaptionKind, t time.Time) string {
	return fmt.Sprintf("%d:%s", kind, t.Format("2006-01-02"))
}

// fakeStore serves a fixed value or error.
type fakeStore struct {
	mu    sync.Mutex
	value string
	found bool
	err   error
	calls atomic.Int32
}

func newFakeStore(value string) *fakeStore {
	return &fakeStore{value: value, found: true}
}

func (s *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.found, s.err
}

func (s *fakeStore) set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value, s.found = value, true
}

// gatedStore blocks each Get until released, then returns the value queued
// for that call. A cancelled context unblocks Get with the context error.
type gatedStore struct {
	mu      sync.Mutex
	values  []string
	gates   []chan struct{}
	entered chan int
	calls   int
}

func newGatedStore(values ...string) *gatedStore {
	g := &gatedStore{values: values, entered: make(chan int, len(values)+8)}
	for range values {
		g.gates = append(g.gates, make(chan struct{}))
	}
	return g
}

func (g *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	n := g.calls
	g.calls++
	g.mu.Unlock()
	if n >= len(g.values) {
		return "", false, fmt.Errorf("unexpected call %d", n)
	}

	g.entered <- n
	select {
	case <-g.gates[n]:
		return g.values[n], true, nil
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (g *gatedStore) release(n int) {
	close(g.gates[n])
}

func (g *gatedStore) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// snapshotStore reads its live value when Get starts. The first Get then
// blocks until open is called, later ones return at once.
type snapshotStore struct {
	mu      sync.Mutex
	value   string
	calls   int
	gate    chan struct{}
	entered chan struct{}
}

func newSnapshotStore(value string) *snapshotStore {
	return &snapshotStore{value: value, gate: make(chan struct{}), entered: make(chan struct{}, 1)}
}

func (s *snapshotStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	value := s.value
	s.calls++
	first := s.calls == 1
	s.mu.Unlock()

	if first {
		s.entered <- struct{}{}
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	return value, true, nil
}

func (s *snapshotStore) set(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
}

func (s *snapshotStore) open() {
	close(s.gate)
}

func (s *snapshotStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

const scenarioPayload = `[
	{"id":"1","name":"Desenvolvimento de Site","amount":"12000","type":"positive","category":{"name":"Vendas","icon":"dollar-sign"},"date":"2020-04-13"},
	{"id":"2","name":"Hamburgueria Pizzy","amount":"59","type":"negative","category":{"name":"Alimentação","icon":"coffee"},"date":"2020-04-10"}
]`
