package dashboard

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Screen drives a Loader from explicit lifecycle events. Activate and Focus
// start a load; Deactivate cancels whatever is in flight.
//
// Loads run on a session context owned by the screen, not on the caller's
// context. A caller that gives up waiting does not abort the load for other
// callers; only Deactivate does.
//
// Loads run one at a time. Requests that arrive before a load has started
// reading share it. Requests that arrive after that share one trailing load,
// so a refresh issued after a write always reads the write.
type Screen struct {
	loader *Loader

	mu      sync.Mutex
	active  bool
	session context.Context
	cancel  context.CancelFunc
	id      uint64
	epoch   uint64        // bumped each time a load starts reading
	running chan struct{} // closed when the reading load finishes; nil when idle

	group singleflight.Group
}

func NewScreen(loader *Loader) *Screen {
	return &Screen{loader: loader}
}

func (s *Screen) Loader() *Loader {
	return s.loader
}

// State returns the loader's last published state.
func (s *Screen) State() State {
	return s.loader.State()
}

// Active reports whether the screen is mounted.
func (s *Screen) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Activate marks the screen visible and loads. Activating an active screen
// behaves like Focus.
func (s *Screen) Activate(ctx context.Context) (State, error) {
	return s.refresh(ctx)
}

// Focus reloads after the screen regained focus. A focus event on an
// inactive screen activates it.
func (s *Screen) Focus(ctx context.Context) (State, error) {
	return s.refresh(ctx)
}

// Deactivate cancels the in-flight load, if any. Its result is discarded.
func (s *Screen) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.cancel()
	s.active = false
	s.session, s.cancel = nil, nil
}

func (s *Screen) refresh(ctx context.Context) (State, error) {
	session, key := s.ensureSession()

	ch := s.group.DoChan(key, func() (any, error) {
		done, err := s.acquire(session)
		if err != nil {
			return nil, err
		}
		defer s.release(done)
		_, err = s.loader.Load(session)
		return nil, err
	})

	select {
	case <-ctx.Done():
		return s.loader.State(), ctx.Err()
	case r := <-ch:
		return s.loader.State(), r.Err
	}
}

func (s *Screen) ensureSession() (context.Context, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		s.session, s.cancel = context.WithCancel(context.Background())
		s.active = true
		s.id++
	}
	return s.session, "load:" + strconv.FormatUint(s.id, 10) + ":" + strconv.FormatUint(s.epoch, 10)
}

// acquire waits until no other load is reading, then claims the slot and
// moves later requests to a new key.
func (s *Screen) acquire(session context.Context) (chan struct{}, error) {
	for {
		s.mu.Lock()
		prev := s.running
		if prev == nil {
			done := make(chan struct{})
			s.running = done
			s.epoch++
			s.mu.Unlock()
			return done, nil
		}
		s.mu.Unlock()

		select {
		case <-prev:
		case <-session.Done():
			return nil, session.Err()
		}
	}
}

func (s *Screen) release(done chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(done)
	if s.running == done {
		s.running = nil
	}
}
