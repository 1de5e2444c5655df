package plugin

import (
	"errors"
	"fmt"
	"testing"

	"airborne-sim/internal/bus"
	"airborne-sim/internal/logging"
)

// fakePlugin records lifecycle calls for assertions.
type fakePlugin struct {
	meta      Metadata
	initErr   error
	initCalls int
	updates   int
	shutdowns int
	onInit    func(ctx *Context) error
}

func (f *fakePlugin) Metadata() Metadata { return f.meta }
func (f *fakePlugin) Initialize(ctx *Context) error {
	f.initCalls++
	if f.onInit != nil {
		if err := f.onInit(ctx); err != nil {
			return err
		}
	}
	return f.initErr
}
func (f *fakePlugin) Update(dt float64) { f.updates++ }
func (f *fakePlugin) Shutdown()         { f.shutdowns++ }

func testContext() *Context {
	log := logging.New(false)
	return &Context{
		Events:   bus.NewEventBus(log),
		Messages: bus.NewMessageQueue(0, log),
		Log:      log,
	}
}

func registerFakes(t *testing.T, r *Registry, fakes ...*fakePlugin) {
	t.Helper()
	for _, f := range fakes {
		f := f
		if err := r.Register(f.meta, func() Plugin { return f }); err != nil {
			t.Fatalf("register %s: %v", f.meta.Name, err)
		}
	}
}

func TestResolveOrder_ProvidersBeforeConsumers(t *testing.T) {
	metas := []Metadata{
		{Name: "engine", Version: "1.0", Provides: []string{"engine"}, Dependencies: []string{"fuel", "electrical"}},
		{Name: "electrical", Version: "1.0", Provides: []string{"electrical"}},
		{Name: "fuel", Version: "1.0", Provides: []string{"fuel"}},
		{Name: "physics", Version: "1.0", Dependencies: []string{"engine"}},
	}

	order, err := ResolveOrder(metas)
	if err != nil {
		t.Fatal(err)
	}
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}
	if pos["fuel"] > pos["engine"] || pos["electrical"] > pos["engine"] {
		t.Errorf("engine before a provider: %v", order)
	}
	if pos["engine"] > pos["physics"] {
		t.Errorf("physics before engine: %v", order)
	}
}

func TestResolveOrder_CycleDetected(t *testing.T) {
	// A requires fuel; B provides fuel and requires engine; C provides
	// engine and requires fuel. B and C depend on each other.
	metas := []Metadata{
		{Name: "a", Version: "1.0", Dependencies: []string{"fuel"}},
		{Name: "b", Version: "1.0", Provides: []string{"fuel"}, Dependencies: []string{"engine"}},
		{Name: "c", Version: "1.0", Provides: []string{"engine"}, Dependencies: []string{"fuel"}},
	}

	_, err := ResolveOrder(metas)
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("err = %v, want ErrDependencyCycle", err)
	}
}

func TestResolveOrder_MissingRequiredDependency(t *testing.T) {
	metas := []Metadata{
		{Name: "engine", Version: "1.0", Dependencies: []string{"fuel"}},
	}
	_, err := ResolveOrder(metas)
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("err = %v, want ErrMissingDependency", err)
	}
}

func TestResolveOrder_OptionalPluginOmitted(t *testing.T) {
	metas := []Metadata{
		{Name: "core", Version: "1.0", Provides: []string{"core"}},
		{Name: "extra", Version: "1.0", Optional: true, Dependencies: []string{"nonexistent"}},
	}
	order, err := ResolveOrder(metas)
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 1 || order[0] != "core" {
		t.Fatalf("order = %v, want [core]", order)
	}
}

func TestResolveOrder_PriorityBreaksTies(t *testing.T) {
	metas := []Metadata{
		{Name: "zebra", Version: "1.0", UpdatePriority: 1},
		{Name: "alpha", Version: "1.0", UpdatePriority: 2},
	}
	order, err := ResolveOrder(metas)
	if err != nil {
		t.Fatal(err)
	}
	if order[0] != "zebra" {
		t.Errorf("order = %v, want zebra first (lower priority value)", order)
	}
}

func TestManager_LoadAllCycleLoadsNothing(t *testing.T) {
	r := NewRegistry()
	a := &fakePlugin{meta: Metadata{Name: "a", Version: "1.0", Dependencies: []string{"fuel"}}}
	b := &fakePlugin{meta: Metadata{Name: "b", Version: "1.0", Provides: []string{"fuel"}, Dependencies: []string{"engine"}}}
	c := &fakePlugin{meta: Metadata{Name: "c", Version: "1.0", Provides: []string{"engine"}, Dependencies: []string{"fuel"}}}
	registerFakes(t, r, a, b, c)

	m := NewManager(r, testContext())
	err := m.LoadAll([]string{"a", "b", "c"})
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("err = %v, want ErrDependencyCycle", err)
	}
	for _, f := range []*fakePlugin{a, b, c} {
		if f.initCalls != 0 {
			t.Errorf("plugin %s initialized despite cycle", f.meta.Name)
		}
		if st := m.StateOf(f.meta.Name); st != StateUnloaded {
			t.Errorf("StateOf(%s) = %s, want unloaded", f.meta.Name, st)
		}
	}
}

func TestManager_LoadAllUnwindsOnInitFailure(t *testing.T) {
	r := NewRegistry()
	good := &fakePlugin{meta: Metadata{Name: "good", Version: "1.0", Provides: []string{"power"}}}
	bad := &fakePlugin{
		meta:    Metadata{Name: "bad", Version: "1.0", Dependencies: []string{"power"}},
		initErr: fmt.Errorf("no sensors"),
	}
	registerFakes(t, r, good, bad)

	m := NewManager(r, testContext())
	if err := m.LoadAll([]string{"good", "bad"}); err == nil {
		t.Fatal("expected LoadAll error")
	}
	if good.shutdowns != 1 {
		t.Errorf("good shutdowns = %d, want 1 (unwound)", good.shutdowns)
	}
	if bad.shutdowns != 1 {
		t.Errorf("bad shutdowns = %d, want 1 (partial init cleaned up)", bad.shutdowns)
	}
	if len(m.Order()) != 0 {
		t.Errorf("order = %v after failed LoadAll, want empty", m.Order())
	}
}

func TestManager_UnloadIsIdempotent(t *testing.T) {
	r := NewRegistry()
	p := &fakePlugin{meta: Metadata{Name: "solo", Version: "1.0"}}
	registerFakes(t, r, p)

	m := NewManager(r, testContext())
	if err := m.LoadAll([]string{"solo"}); err != nil {
		t.Fatal(err)
	}
	m.Unload("solo")
	m.Unload("solo")
	m.Unload("never-loaded")

	if p.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", p.shutdowns)
	}
}

func TestManager_UnloadSweepsSubscriptions(t *testing.T) {
	r := NewRegistry()
	p := &fakePlugin{
		meta: Metadata{Name: "listener", Version: "1.0"},
		onInit: func(ctx *Context) error {
			if _, err := ctx.Events.Subscribe("test.event", "listener", func(bus.Event) error { return nil }, bus.PriorityNormal); err != nil {
				return err
			}
			return ctx.Messages.SubscribeTopic("some.topic", "listener", func(bus.Message) error { return nil })
		},
	}
	registerFakes(t, r, p)

	ctx := testContext()
	m := NewManager(r, ctx)
	if err := m.LoadAll([]string{"listener"}); err != nil {
		t.Fatal(err)
	}
	if n := ctx.Events.SubscriberCount("test.event"); n != 1 {
		t.Fatalf("subscribers before unload = %d, want 1", n)
	}

	m.Unload("listener")

	if n := ctx.Events.SubscriberCount("test.event"); n != 0 {
		t.Errorf("event subscribers after unload = %d, want 0", n)
	}
	if n := ctx.Messages.SubscriberCount("some.topic"); n != 0 {
		t.Errorf("topic subscribers after unload = %d, want 0", n)
	}
}

func TestManager_UpdateOnlyRunningPlugins(t *testing.T) {
	r := NewRegistry()
	a := &fakePlugin{meta: Metadata{Name: "a", Version: "1.0"}}
	b := &fakePlugin{meta: Metadata{Name: "b", Version: "1.0"}}
	registerFakes(t, r, a, b)

	m := NewManager(r, testContext())
	if err := m.LoadAll([]string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	m.UpdateAll(1.0 / 60.0)
	m.Unload("a")
	m.UpdateAll(1.0 / 60.0)

	if a.updates != 1 {
		t.Errorf("a updates = %d, want 1", a.updates)
	}
	if b.updates != 2 {
		t.Errorf("b updates = %d, want 2", b.updates)
	}
}
