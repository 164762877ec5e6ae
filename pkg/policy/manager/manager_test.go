package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"regolith-hq/regolith/pkg/policy/engine"
	"regolith-hq/regolith/pkg/policy/source"
)

func TestNew_Validation(t *testing.T) {
	eng := engine.New()
	src := source.NewMemorySource(nil)

	if _, err := New(nil, src, eng, nil, nil); err == nil {
		t.Error("New(nil config) error = nil, want error")
	}
	if _, err := New(&Config{}, nil, eng, nil, nil); err == nil {
		t.Error("New(nil source) error = nil, want error")
	}
	if _, err := New(&Config{}, src, nil, nil, nil); err == nil {
		t.Error("New(nil engine) error = nil, want error")
	}
}

func TestManager_Load(t *testing.T) {
	eng := engine.New()
	src := source.NewMemorySource(map[string]string{
		"authz.rego": "package authz\n\ndefault allow := false\n",
	})

	mgr, err := New(&Config{}, src, eng, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	packages := eng.Packages()
	if len(packages) != 1 || packages[0] != "data.authz" {
		t.Errorf("Packages() = %v, want [data.authz]", packages)
	}

	loadTime, loadErr := mgr.LastLoad()
	if loadTime.IsZero() {
		t.Error("LastLoad() time is zero after Load()")
	}
	if loadErr != nil {
		t.Errorf("LastLoad() error = %v, want nil", loadErr)
	}
}

func TestManager_Load_ReplacesPrevious(t *testing.T) {
	eng := engine.New()
	if err := eng.AddPolicy("stale.rego", "package stale\n"); err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}

	src := source.NewMemorySource(map[string]string{
		"fresh.rego": "package fresh\n",
	})

	mgr, err := New(&Config{}, src, eng, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := mgr.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	packages := eng.Packages()
	if len(packages) != 1 || packages[0] != "data.fresh" {
		t.Errorf("Packages() = %v, want [data.fresh]", packages)
	}
}

func TestManager_Load_BadPolicy(t *testing.T) {
	eng := engine.New()
	src := source.NewMemorySource(map[string]string{
		"bad.rego": "not rego at all ][",
	})

	mgr, err := New(&Config{}, src, eng, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := mgr.Load(context.Background()); err == nil {
		t.Fatal("Load(bad policy) error = nil, want error")
	}

	if _, loadErr := mgr.LastLoad(); loadErr == nil {
		t.Error("LastLoad() error = nil after failed load")
	}
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int64
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(120 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_RunsLatestCallback(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var got string

	d.Trigger(func() {
		mu.Lock()
		got = "first"
		mu.Unlock()
	})
	d.Trigger(func() {
		mu.Lock()
		got = "second"
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if got != "second" {
		t.Errorf("callback = %q, want %q", got, "second")
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var calls atomic.Int64
	d.Trigger(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(120 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after Stop(), want 0", got)
	}
}
