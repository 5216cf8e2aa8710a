package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/mediaiq/miq/internal/config"
)

type fakeAgent struct {
	integrations []string
	validate     bool
	demoData     map[string]any
	demoErr      error
	prodData     map[string]any
	prodErr      error
	prodCalls    int
	demoCalls    int
	panicDemo    bool
}

func (f *fakeAgent) Key() string                    { return "fake" }
func (f *fakeAgent) Name() string                   { return "Fake Agent" }
func (f *fakeAgent) Description() string            { return "test double" }
func (f *fakeAgent) RequiredIntegrations() []string { return f.integrations }
func (f *fakeAgent) Validate(input any) bool        { return f.validate }

func (f *fakeAgent) DemoProcess(ctx context.Context, input any) (map[string]any, error) {
	f.demoCalls++
	if f.panicDemo {
		panic("demo exploded")
	}
	return f.demoData, f.demoErr
}

func (f *fakeAgent) ProductionProcess(ctx context.Context, input any) (map[string]any, error) {
	f.prodCalls++
	return f.prodData, f.prodErr
}

func demoSettings() *config.Settings { return config.Defaults() }

func productionSettings() *config.Settings {
	s := config.Defaults()
	s.ProductionMode = true
	return s
}

func TestRunInvalidInput(t *testing.T) {
	rt := NewRuntime(demoSettings())
	a := &fakeAgent{validate: false}

	res, _, err := rt.Run(context.Background(), a, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if res == nil || res.Success {
		t.Fatal("expected failure envelope")
	}
	if a.demoCalls != 0 || a.prodCalls != 0 {
		t.Fatal("no branch should run on invalid input")
	}
}

func TestRunDemoByDefault(t *testing.T) {
	rt := NewRuntime(demoSettings())
	a := &fakeAgent{validate: true, demoData: map[string]any{"x": 1}}

	res, _, err := rt.Run(context.Background(), a, "input")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !res.Success || res.Mode != ModeDemo {
		t.Fatalf("res = %+v", res)
	}
	if a.prodCalls != 0 {
		t.Fatal("production branch ran without production mode")
	}
}

func TestRunMissingIntegrationDowngrades(t *testing.T) {
	rt := NewRuntime(productionSettings()) // no OPENAI key in settings
	a := &fakeAgent{validate: true, integrations: []string{"openai"}, demoData: map[string]any{}}

	res, _, err := rt.Run(context.Background(), a, "input")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.Mode != ModeDemo {
		t.Fatalf("mode = %s, want demo", res.Mode)
	}
	if a.prodCalls != 0 {
		t.Fatal("production branch must not run with missing credentials")
	}
}

func TestRunProductionFallsBackOnTransientError(t *testing.T) {
	rt := NewRuntime(productionSettings())
	a := &fakeAgent{
		validate: true,
		prodErr:  errors.New("upstream 503"),
		demoData: map[string]any{"ok": true},
	}

	res, _, err := rt.Run(context.Background(), a, "input")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !res.Success || res.Mode != ModeDemo {
		t.Fatalf("res = %+v, want demo fallback success", res)
	}
	if a.prodCalls != 1 || a.demoCalls != 1 {
		t.Fatalf("calls prod=%d demo=%d, want 1/1", a.prodCalls, a.demoCalls)
	}
}

func TestRunPermanentErrorDoesNotFallBack(t *testing.T) {
	rt := NewRuntime(productionSettings())
	a := &fakeAgent{
		validate: true,
		prodErr:  Permanent(errors.New("asset not found")),
		demoData: map[string]any{"ok": true},
	}

	res, _, err := rt.Run(context.Background(), a, "input")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.Success || res.Mode != ModeProduction {
		t.Fatalf("res = %+v, want production failure", res)
	}
	if a.demoCalls != 0 {
		t.Fatal("permanent errors must not retry on demo")
	}
}

func TestRunPanicContained(t *testing.T) {
	rt := NewRuntime(demoSettings())
	a := &fakeAgent{validate: true, panicDemo: true}

	res, _, err := rt.Run(context.Background(), a, "input")
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if res.Success || res.Error == "" {
		t.Fatalf("res = %+v, want contained panic as failure", res)
	}
}
