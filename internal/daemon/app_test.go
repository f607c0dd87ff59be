// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/mailtools/addmsgid/internal/log"
)

type fakeManager struct {
	startErr error
	started  chan struct{}
}

func (f *fakeManager) Start(ctx context.Context) error {
	if f.started != nil {
		close(f.started)
	}
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeManager) Shutdown(context.Context) error { return nil }

func (f *fakeManager) RegisterShutdownHook(string, ShutdownHook) {}

func (f *fakeManager) Addr() net.Addr { return nil }

func TestNewAppRequiresManager(t *testing.T) {
	if _, err := NewApp(log.WithComponent("app-test"), nil); !errors.Is(err, ErrMissingManager) {
		t.Fatalf("expected ErrMissingManager, got %v", err)
	}
}

func TestAppRunPropagatesManagerError(t *testing.T) {
	boom := errors.New("boom")
	app, err := NewApp(log.WithComponent("app-test"), &fakeManager{startErr: boom})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if err := app.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestAppRunStopsOnCancel(t *testing.T) {
	mgr := &fakeManager{started: make(chan struct{})}
	app, err := NewApp(log.WithComponent("app-test"), mgr)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	<-mgr.started
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error on clean cancel: %v", err)
	}
}
