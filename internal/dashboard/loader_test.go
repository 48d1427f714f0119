package dashboard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"gofinances/internal/storage/memory"
)

func TestLoaderInitialState(t *testing.T) {
	l := NewLoader(newFakeStore("[]"), WithFormatter(plainFormatter{}))
	st := l.State()
	if !st.IsLoading || st.Status != StatusLoading || st.Generation != 0 {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if st.Transactions == nil {
		t.Fatalf("initial transactions should be an empty list")
	}
}

func TestLoaderMissingKey(t *testing.T) {
	store := memory.New()
	l := NewLoader(store, WithFormatter(plainFormatter{}))

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := l.State()
	if st.IsLoading || st.Status != StatusReady {
		t.Fatalf("expected ready state, got %+v", st)
	}
	if len(st.Transactions) != 0 {
		t.Fatalf("expected no transactions, got %v", st.Transactions)
	}
	h := st.Highlights
	if h.Entries.Amount != "0.00" || h.Expensives.Amount != "0.00" || h.Total.Amount != "0.00" {
		t.Fatalf("expected zero totals, got %+v", h)
	}
}

func TestLoaderReadsConfiguredKey(t *testing.T) {
	store := memory.New()
	_ = store.Set(context.Background(), "custom", scenarioPayload)
	l := NewLoader(store, WithKey("custom"), WithFormatter(plainFormatter{}))

	res, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Transactions) != 2 || l.Key() != "custom" {
		t.Fatalf("expected the custom key to be read, got %d", len(res.Transactions))
	}
}

func TestLoaderIdempotentAndFresh(t *testing.T) {
	store := newFakeStore(scenarioPayload)
	l := NewLoader(store, WithFormatter(plainFormatter{}))
	ctx := context.Background()

	if _, err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	first := l.State()
	if _, err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	second := l.State()

	if !reflect.DeepEqual(first.Transactions, second.Transactions) || first.Highlights != second.Highlights {
		t.Fatalf("unchanged storage produced different output")
	}
	if second.Generation != first.Generation+1 {
		t.Fatalf("expected generation to advance, got %d then %d", first.Generation, second.Generation)
	}

	store.set(`[{"id":"9","name":"Only","amount":"5","type":"negative","category":{"name":"c","icon":"i"},"date":"2021-01-01"}]`)
	if _, err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	third := l.State()
	if len(third.Transactions) != 1 || third.Transactions[0].ID != "9" {
		t.Fatalf("expected only the latest stored content, got %+v", third.Transactions)
	}
	if third.Highlights.Entries.Amount != "0.00" || third.Highlights.Total.Amount != "-5.00" {
		t.Fatalf("stale totals: %+v", third.Highlights)
	}
}

func TestLoaderFailureStates(t *testing.T) {
	cases := []struct {
		name  string
		store *fakeStore
		want  error
		kind  ErrorKind
	}{
		{"storage unavailable", &fakeStore{err: errors.New("disk gone")}, ErrStorageUnavailable, KindStorageUnavailable},
		{"malformed payload", newFakeStore("{not json"), ErrMalformedPayload, KindMalformedPayload},
		{"invalid record", newFakeStore(`[{"id":"1","name":"x","amount":"abc","type":"positive","date":"2020-01-01"}]`), ErrInvalidRecord, KindInvalidRecord},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLoader(tc.store, WithFormatter(plainFormatter{}))
			_, err := l.Load(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var le *LoadError
			if !errors.As(err, &le) || le.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %#v", tc.kind, err)
			}

			st := l.State()
			if st.Status != StatusFailed || st.IsLoading {
				t.Fatalf("expected failed state distinct from loading, got %+v", st)
			}
			if st.Error == "" || st.Error != le.UserMessage() {
				t.Fatalf("expected user-visible message, got %q", st.Error)
			}
			if len(st.Transactions) != 0 {
				t.Fatalf("failed state must not carry transactions")
			}
		})
	}
}

func TestLoaderRecoversOnNextLoad(t *testing.T) {
	store := &fakeStore{err: errors.New("offline")}
	l := NewLoader(store, WithFormatter(plainFormatter{}))
	if _, err := l.Load(context.Background()); err == nil {
		t.Fatalf("expected failure")
	}
	if store.calls.Load() != 1 {
		t.Fatalf("a failed load must not retry on its own, got %d reads", store.calls.Load())
	}

	store.mu.Lock()
	store.err, store.value, store.found = nil, scenarioPayload, true
	store.mu.Unlock()

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := l.State()
	if st.Status != StatusReady || st.Error != "" || len(st.Transactions) != 2 {
		t.Fatalf("expected recovery, got %+v", st)
	}
}

func TestLoaderSkipPolicyPublishesRest(t *testing.T) {
	store := newFakeStore(`[
		{"id":"1","name":"a","amount":"abc","type":"positive","date":"2020-01-01"},
		{"id":"2","name":"b","amount":"7","type":"positive","date":"2020-01-02"}
	]`)
	l := NewLoader(store, WithFormatter(plainFormatter{}), WithPolicy(PolicySkip))
	res, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Skipped) != 1 || len(l.State().Transactions) != 1 || l.State().Highlights.Total.Amount != "7.00" {
		t.Fatalf("unexpected skip outcome: %+v / %+v", res.Skipped, l.State())
	}
}

func TestLoaderSubscribe(t *testing.T) {
	l := NewLoader(newFakeStore(scenarioPayload), WithFormatter(plainFormatter{}))

	var mu sync.Mutex
	var seen []uint64
	cancel := l.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st.Generation)
	})

	_, _ = l.Load(context.Background())
	_, _ = l.Load(context.Background())
	cancel()
	cancel()
	_, _ = l.Load(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(seen, []uint64{1, 2}) {
		t.Fatalf("unexpected notifications: %v", seen)
	}
}

func TestLoaderDiscardsStaleCompletion(t *testing.T) {
	older := `[{"id":"old","name":"a","amount":"1","type":"positive","date":"2020-01-01"}]`
	newer := `[{"id":"new","name":"b","amount":"2","type":"positive","date":"2020-01-02"}]`
	store := newGatedStore(older, newer)
	l := NewLoader(store, WithFormatter(plainFormatter{}))

	done := make(chan error, 2)
	go func() { _, err := l.Load(context.Background()); done <- err }()
	<-store.entered
	go func() { _, err := l.Load(context.Background()); done <- err }()
	<-store.entered

	store.release(1)
	if err := <-done; err != nil {
		t.Fatalf("newer load: %v", err)
	}
	store.release(0)
	if err := <-done; err != nil {
		t.Fatalf("older load: %v", err)
	}

	st := l.State()
	if len(st.Transactions) != 1 || st.Transactions[0].ID != "new" {
		t.Fatalf("stale load overwrote newer state: %+v", st.Transactions)
	}
	if st.Generation != 1 {
		t.Fatalf("expected a single publication, got generation %d", st.Generation)
	}
}

func TestLoaderCancelledLoadPublishesNothing(t *testing.T) {
	store := newGatedStore(scenarioPayload)
	l := NewLoader(store, WithFormatter(plainFormatter{}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { _, err := l.Load(ctx); done <- err }()
	<-store.entered
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if st := l.State(); st.Status != StatusLoading || st.Generation != 0 {
		t.Fatalf("cancelled load must not publish, got %+v", st)
	}
}

func TestLoaderTimeout(t *testing.T) {
	store := newGatedStore(scenarioPayload)
	l := NewLoader(store, WithFormatter(plainFormatter{}), WithTimeout(20*time.Millisecond))

	_, err := l.Load(context.Background())
	if !errors.Is(err, ErrStorageUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected storage timeout, got %v", err)
	}
	if l.State().Status != StatusFailed {
		t.Fatalf("timeout should fail the load")
	}
}

func TestComputeDoesNotPublish(t *testing.T) {
	l := NewLoader(newFakeStore(scenarioPayload), WithFormatter(plainFormatter{}))
	res, err := l.Compute(context.Background(), plainFormatter{})
	if err != nil || len(res.Transactions) != 2 {
		t.Fatalf("Compute: %v", err)
	}
	if l.State().Generation != 0 {
		t.Fatalf("Compute must not publish")
	}
}
