package connectors

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// fakeConnector is a scriptable test connector.
type fakeConnector struct {
	Base
	authErr    error
	readErr    error
	reads      int
	writes     int
	auths      int
	health     Status
	lastData   map[string]any
	lastParams map[string]any
}

func newFake(id string) *fakeConnector {
	return &fakeConnector{
		Base:   NewBase(id, id, CategoryStorage, "none", true),
		health: StatusConnected,
	}
}

func (f *fakeConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: f.ID() + "_read", ConnectorID: f.ID(), Operation: OpRead},
		{Name: f.ID() + "_write", ConnectorID: f.ID(), Operation: OpWrite,
			ParamKeys: []string{"channel"}},
	}
}

func (f *fakeConnector) Authenticate(ctx context.Context) error {
	f.auths++
	return f.authErr
}

func (f *fakeConnector) HealthCheck(ctx context.Context) Health {
	return Health{Status: f.health}
}

func (f *fakeConnector) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return map[string]any{"read": f.reads}, nil
}

func (f *fakeConnector) Write(ctx context.Context, data, params map[string]any) (map[string]any, error) {
	f.writes++
	f.lastData, f.lastParams = data, params
	return map[string]any{"written": true}, nil
}

func TestCallToolUnknownTool(t *testing.T) {
	r := NewRegistry()
	res := r.CallTool(context.Background(), "nope_read", nil)
	if res.Success {
		t.Fatal("unknown tool should fail")
	}
	if res.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestCallToolConnectsOnDemand(t *testing.T) {
	r := NewRegistry()
	f := newFake("store")
	r.Register(f)

	res := r.CallTool(context.Background(), "store_read", map[string]any{"q": "x"})
	if !res.Success {
		t.Fatalf("call failed: %s", res.Error)
	}
	if f.auths != 1 {
		t.Fatalf("auths = %d, want on-demand connect", f.auths)
	}
	if r.Status("store") != StatusConnected {
		t.Fatalf("status = %s", r.Status("store"))
	}
	reqs, errs := r.Counters("store")
	if reqs != 1 || errs != 0 {
		t.Fatalf("counters = %d/%d", reqs, errs)
	}
}

func TestCallToolWriteDispatch(t *testing.T) {
	r := NewRegistry()
	f := newFake("store")
	r.Register(f)
	r.ConnectAll(context.Background())

	res := r.CallTool(context.Background(), "store_write", map[string]any{"title": "x"})
	if !res.Success || f.writes != 1 || f.reads != 0 {
		t.Fatalf("res=%+v writes=%d reads=%d", res, f.writes, f.reads)
	}
}

func TestCallToolSplitsRoutingParamsFromData(t *testing.T) {
	r := NewRegistry()
	f := newFake("store")
	r.Register(f)
	r.ConnectAll(context.Background())

	res := r.CallTool(context.Background(), "store_write",
		map[string]any{"channel": "C1", "title": "x", "body": "y"})
	if !res.Success {
		t.Fatalf("call failed: %s", res.Error)
	}
	if !reflect.DeepEqual(f.lastParams, map[string]any{"channel": "C1"}) {
		t.Fatalf("params = %v, want the declared routing key only", f.lastParams)
	}
	if !reflect.DeepEqual(f.lastData, map[string]any{"title": "x", "body": "y"}) {
		t.Fatalf("data = %v, want the content payload", f.lastData)
	}
}

func TestCallToolErrorUpdatesState(t *testing.T) {
	r := NewRegistry()
	f := newFake("store")
	r.Register(f)
	r.ConnectAll(context.Background())

	f.readErr = errors.New("disk gone")
	res := r.CallTool(context.Background(), "store_read", nil)
	if res.Success {
		t.Fatal("expected failure envelope")
	}
	if r.Status("store") != StatusError {
		t.Fatalf("status = %s, want ERROR", r.Status("store"))
	}
	_, errs := r.Counters("store")
	if errs != 1 {
		t.Fatalf("errors = %d, want 1", errs)
	}
}

func TestConnectAllRecordsFailure(t *testing.T) {
	r := NewRegistry()
	good := newFake("good")
	bad := newFake("bad")
	bad.authErr = errors.New("denied")
	r.Register(good)
	r.Register(bad)

	r.ConnectAll(context.Background())
	if r.Status("good") != StatusConnected {
		t.Fatalf("good = %s", r.Status("good"))
	}
	if r.Status("bad") != StatusError {
		t.Fatalf("bad = %s", r.Status("bad"))
	}
}

func TestHealthHistoryBounded(t *testing.T) {
	r := NewRegistry()
	f := newFake("store")
	r.Register(f)
	r.ConnectAll(context.Background())

	for i := 0; i < healthRingSize+10; i++ {
		r.HealthCheckAll(context.Background())
	}
	if n := len(r.HealthHistory("store")); n != healthRingSize {
		t.Fatalf("ring = %d, want %d", n, healthRingSize)
	}
}

func TestHealthCheckSkipsDisconnected(t *testing.T) {
	r := NewRegistry()
	f := newFake("store")
	r.Register(f)

	out := r.HealthCheckAll(context.Background())
	if len(out) != 0 {
		t.Fatalf("disconnected connector probed: %v", out)
	}
}

func TestToolsIndex(t *testing.T) {
	r := NewRegistry()
	r.Register(newFake("a"))
	r.Register(newFake("b"))
	tools := r.Tools()
	if len(tools) != 4 {
		t.Fatalf("tools = %d, want 4", len(tools))
	}
}
