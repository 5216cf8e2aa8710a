package agents

import (
	"context"
	"testing"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
)

func testRegistry(t *testing.T) *agent.Registry {
	t.Helper()
	reg := agent.NewRegistry()
	RegisterAll(reg, config.Defaults(), nil, connectors.NewRegistry())
	return reg
}

func TestRegisterAllKeys(t *testing.T) {
	reg := testRegistry(t)
	want := []string{
		"caption", "clip", "compliance", "archive", "social", "localize",
		"rights", "trending", "deepfake", "factcheck", "audience",
		"ai_production_director", "brand", "carbon", "ingest", "signal",
		"playout", "ott", "newsroom", "live_fact_check",
	}
	keys := reg.Keys()
	if len(keys) != len(want) {
		t.Fatalf("registered %d agents, want %d: %v", len(keys), len(want), keys)
	}
	for _, k := range want {
		if !reg.Has(k) {
			t.Errorf("agent %q not registered", k)
		}
	}
}

func TestTrendingDemoCarriesBothSignals(t *testing.T) {
	a := NewTrending(config.Defaults())
	data, err := a.DemoProcess(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	trends, _ := data["trends"].([]any)
	if len(trends) == 0 {
		t.Fatal("no trends")
	}
	top, _ := trends[0].(map[string]any)
	if v, _ := top["velocity_score"].(int); v <= 90 {
		t.Fatalf("top velocity = %v, want > 90", top["velocity_score"])
	}
	if breaking, _ := data["breaking_news"].([]any); len(breaking) == 0 {
		t.Fatal("no breaking_news items")
	}
}

func TestComplianceDemoHasCriticalIssue(t *testing.T) {
	a := NewCompliance(config.Defaults(), nil)
	data, err := a.DemoProcess(context.Background(), "https://media.example.com/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	issues, _ := data["issues"].([]any)
	critical := false
	for _, it := range issues {
		if m, ok := it.(map[string]any); ok && m["severity"] == "critical" {
			critical = true
		}
	}
	if !critical {
		t.Fatalf("no critical issue in %v", issues)
	}
}

func TestClipDemoHasMoments(t *testing.T) {
	a := NewClip(config.Defaults())
	data, err := a.DemoProcess(context.Background(), "https://media.example.com/a.mp4")
	if err != nil {
		t.Fatal(err)
	}
	moments, _ := data["viral_moments"].([]any)
	if len(moments) == 0 {
		t.Fatal("no viral moments")
	}
	if data["clip_count"] != len(moments) {
		t.Fatalf("clip_count = %v, moments = %d", data["clip_count"], len(moments))
	}
}

func TestRightsDemoExpiringLicense(t *testing.T) {
	a := NewRights(config.Defaults())
	data, err := a.DemoProcess(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	licenses, _ := data["licenses"].([]any)
	expiring := false
	for _, l := range licenses {
		if m, ok := l.(map[string]any); ok {
			if d, ok := m["days_until_expiry"].(int); ok && d < 30 {
				expiring = true
			}
		}
	}
	if !expiring {
		t.Fatalf("no license inside the expiry window: %v", licenses)
	}
	if v, _ := data["violations"].([]any); len(v) != 0 {
		t.Fatalf("demo audit should report no violations, got %v", v)
	}
}

func TestCaptionDemoEchoesURL(t *testing.T) {
	a := NewCaption(config.Defaults(), nil)
	url := "https://media.example.com/bulletin.mxf"
	data, err := a.DemoProcess(context.Background(), "caption "+url)
	if err != nil {
		t.Fatal(err)
	}
	if data["url"] != url {
		t.Fatalf("url = %v", data["url"])
	}
	if data["caption_file"] != url+".vtt" {
		t.Fatalf("caption_file = %v", data["caption_file"])
	}
}

func TestProductionWithoutLLMNotReady(t *testing.T) {
	cases := []agent.Agent{
		NewCaption(config.Defaults(), nil),
		NewCompliance(config.Defaults(), nil),
		NewSocial(config.Defaults(), nil),
		NewFactcheck(config.Defaults(), nil),
		NewLiveFactCheck(config.Defaults(), nil),
	}
	for _, a := range cases {
		_, err := a.ProductionProcess(context.Background(), "https://x/a.mp4 text")
		if err != agent.ErrProductionNotReady {
			t.Errorf("%s: err = %v, want ErrProductionNotReady", a.Key(), err)
		}
	}
}

func TestScheduledAgentsAcceptNilInput(t *testing.T) {
	reg := testRegistry(t)
	for _, key := range []string{"trending", "rights", "carbon", "signal"} {
		if !reg.Get(key).Validate(nil) {
			t.Errorf("%s must accept empty scheduled input", key)
		}
	}
	if reg.Get("caption").Validate(nil) {
		t.Error("caption should reject nil input")
	}
}

func TestArchiveAgentSearchesCatalog(t *testing.T) {
	conns := connectors.NewRegistry()
	conns.Register(connectors.NewArchive(t.TempDir() + "/archive.db"))
	a := NewArchive(config.Defaults(), conns)

	data, err := a.DemoProcess(context.Background(), "world cup recap")
	if err != nil {
		t.Fatal(err)
	}
	if data["action"] != "search" {
		t.Fatalf("action = %v", data["action"])
	}

	data, err = a.DemoProcess(context.Background(), "archive https://media.example.com/final.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if data["action"] != "ingest" {
		t.Fatalf("ingest result = %v", data)
	}
	if id, _ := data["asset_id"].(string); id == "" {
		t.Fatalf("no asset id in %v", data)
	}
}
