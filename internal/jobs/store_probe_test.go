package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type flakyStore struct {
	mu  sync.Mutex
	err error
}

func (s *flakyStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *flakyStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func TestStoreProbeReportsTransitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &flakyStore{}
	reports := make(chan bool, 64)
	StartStoreProbe(ctx, 10*time.Millisecond, store, func(serving bool) { reports <- serving }, zerolog.Nop())

	if got := <-reports; !got {
		t.Fatalf("expected initial probe to report serving")
	}

	store.fail(errors.New("connection refused"))
	deadline := time.After(2 * time.Second)
	for {
		select {
		case serving := <-reports:
			if !serving {
				return
			}
		case <-deadline:
			t.Fatalf("expected probe to report not serving after store failure")
		}
	}
}

func TestStoreProbeWithoutStore(t *testing.T) {
	called := false
	StartStoreProbe(context.Background(), time.Millisecond, nil, func(bool) { called = true }, zerolog.Nop())
	if called {
		t.Fatalf("expected no report without a store")
	}
}
