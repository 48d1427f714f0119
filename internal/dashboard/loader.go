package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"gofinances/internal/core"
	"gofinances/internal/format"
	applog "gofinances/internal/log"
	"gofinances/internal/storage"
)

// Status is the lifecycle phase of the dashboard data.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State is everything the view observes. Published states are never
// mutated; a new load replaces the whole value.
type State struct {
	IsLoading    bool                        `json:"isLoading"`
	Status       Status                      `json:"status"`
	Transactions []core.FormattedTransaction `json:"transactions"`
	Highlights   core.HighlightTotals        `json:"highlights"`
	Error        string                      `json:"error,omitempty"`
	Generation   uint64                      `json:"generation"`
}

// Loader reads the transaction dataset and publishes the aggregated state.
type Loader struct {
	store     storage.Reader
	key       string
	formatter format.Formatter
	policy    Policy
	timeout   time.Duration
	logger    *applog.Logger

	// notifyMu orders publications so subscribers see generations ascending.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State
	started  uint64 // sequence of the most recently started load
	applied  uint64 // sequence of the load behind the current state
	subs     map[int]func(State)
	nextSub  int
}

type Option func(*Loader)

func WithKey(key string) Option {
	return func(l *Loader) { l.key = key }
}

func WithFormatter(f format.Formatter) Option {
	return func(l *Loader) { l.formatter = f }
}

func WithPolicy(p Policy) Option {
	return func(l *Loader) { l.policy = p }
}

// WithTimeout bounds the storage read of each load. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

func WithLogger(logger *applog.Logger) Option {
	return func(l *Loader) { l.logger = logger.WithComponent(applog.ComponentDashboard) }
}

func NewLoader(store storage.Reader, opts ...Option) *Loader {
	l := &Loader{
		store:  store,
		key:    storage.DefaultTransactionsKey,
		policy: PolicyFail,
		state: State{
			IsLoading:    true,
			Status:       StatusLoading,
			Transactions: []core.FormattedTransaction{},
		},
		subs: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.formatter == nil {
		l.formatter = format.MustNew(format.DefaultLocale, format.DefaultCurrency)
	}
	if l.logger == nil {
		l.logger = applog.Default(applog.ComponentDashboard)
	}
	return l
}

// Key returns the storage key the loader reads.
func (l *Loader) Key() string {
	return l.key
}

// Formatter returns the formatter used for published state.
func (l *Loader) Formatter() format.Formatter {
	return l.formatter
}

// State returns the last published state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Subscribe registers fn to run after every publication. fn runs on the
// publishing goroutine and must not call Load synchronously.
func (l *Loader) Subscribe(fn func(State)) (cancel func()) {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// Load reads the stored transactions, aggregates them and publishes the
// outcome. A load whose ctx is cancelled before it finishes publishes
// nothing, and neither does one overtaken by a load started after it.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	l.mu.Lock()
	l.started++
	seq := l.started
	l.mu.Unlock()

	l.logger.DebugContext(ctx, "Dashboard load started", applog.FieldStorageKey, l.key)

	res, err := l.Compute(ctx, l.formatter)
	if ctx.Err() != nil {
		if err == nil {
			err = ctx.Err()
		}
		l.logger.InfoContext(ctx, "Dashboard load cancelled", applog.FieldError, ctx.Err())
		return Result{}, err
	}

	if err != nil {
		l.logFailure(ctx, err)
		l.publish(seq, State{
			Status:       StatusFailed,
			Transactions: []core.FormattedTransaction{},
			Error:        UserMessage(err),
		})
		return Result{}, err
	}

	for _, s := range res.Skipped {
		l.logger.WarnContext(ctx, "Skipped invalid transaction record",
			applog.FieldRecordIndex, s.Index,
			applog.FieldRecordID, s.ID,
			applog.FieldError, s.Err)
	}

	gen, ok := l.publish(seq, State{
		Status:       StatusReady,
		Transactions: res.Transactions,
		Highlights:   res.Highlights,
	})
	if ok {
		fields := applog.NewFields().WithLoad(l.key, len(res.Transactions), len(res.Skipped), gen)
		l.logger.InfoContext(ctx, "Dashboard load completed", fields.ToSlice()...)
	}
	return res, nil
}

// Compute reads and aggregates with f without publishing anything. It backs
// Load and serves one-off renderings in another locale.
func (l *Loader) Compute(ctx context.Context, f format.Formatter) (Result, error) {
	readCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	raw, found, err := l.store.Get(readCtx, l.key)
	if err != nil {
		return Result{}, &LoadError{Kind: KindStorageUnavailable, Index: -1, Cause: err}
	}
	records, err := Decode(raw, found)
	if err != nil {
		return Result{}, err
	}
	return Aggregate(records, f, l.policy)
}

// publish installs next if seq is newer than the load behind the current
// state, and notifies subscribers. It reports the new generation.
func (l *Loader) publish(seq uint64, next State) (uint64, bool) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if seq <= l.applied {
		l.mu.Unlock()
		l.logger.Debug("Discarded stale dashboard load", applog.FieldGeneration, l.state.Generation)
		return 0, false
	}
	l.applied = seq
	next.IsLoading = false
	next.Generation = l.state.Generation + 1
	l.state = next

	subs := make([]func(State), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next.Generation, true
}

func (l *Loader) logFailure(ctx context.Context, err error) {
	kind := ErrorKind("unknown")
	var le *LoadError
	if errors.As(err, &le) {
		kind = le.Kind
	}
	l.logger.ErrorContext(ctx, "Dashboard load failed",
		applog.FieldStorageKey, l.key,
		applog.FieldErrorKind, string(kind),
		applog.FieldError, err)
}
