package bus

import (
	"testing"
)

func TestPublishFansOutInTableOrder(t *testing.T) {
	b := New(map[Kind][]string{
		KindClipDetected: {"social", "brand"},
	})
	var got []string
	b.SetSink(func(agentKey string, ev Event, high bool) {
		got = append(got, agentKey)
		if high {
			t.Errorf("CLIP_DETECTED should not be high priority")
		}
	})

	enqueued := b.Publish(NewEvent(KindClipDetected, map[string]any{"n": 1}, "clip", 1))
	want := []string{"social", "brand"}
	if len(enqueued) != 2 || len(got) != 2 {
		t.Fatalf("enqueued = %v, sink calls = %v", enqueued, got)
	}
	for i := range want {
		if got[i] != want[i] || enqueued[i] != want[i] {
			t.Fatalf("order: got %v, want %v", got, want)
		}
	}
}

func TestPublishUnknownKindNoFanOut(t *testing.T) {
	b := New(map[Kind][]string{})
	b.SetSink(func(string, Event, bool) { t.Error("sink must not fire") })
	if enqueued := b.Publish(NewEvent(KindTrendingSpike, nil, "trending", 1)); len(enqueued) != 0 {
		t.Fatalf("enqueued = %v, want none", enqueued)
	}
}

func TestHighPriorityKinds(t *testing.T) {
	for _, k := range []Kind{KindComplianceAlert, KindBreakingNews, KindViolationDetected} {
		if !HighPriority(k) {
			t.Errorf("%s should be high priority", k)
		}
	}
	for _, k := range []Kind{KindNewContent, KindCaptionComplete, KindClipDetected, KindTrendingSpike, KindLicenseExpiring} {
		if HighPriority(k) {
			t.Errorf("%s should not be high priority", k)
		}
	}
}

func TestListenersReceiveEveryKind(t *testing.T) {
	b := New(DefaultSubscriptions())
	b.SetSink(func(string, Event, bool) {})
	var seen []Kind
	b.Listen("ws:test", func(ev Event) { seen = append(seen, ev.Kind) })

	b.Publish(NewEvent(KindNewContent, nil, "system", 0))
	b.Publish(NewEvent(KindBreakingNews, nil, "trending", 1))
	if len(seen) != 2 || seen[0] != KindNewContent || seen[1] != KindBreakingNews {
		t.Fatalf("seen = %v", seen)
	}

	b.Unlisten("ws:test")
	b.Publish(NewEvent(KindNewContent, nil, "system", 0))
	if len(seen) != 2 {
		t.Fatal("listener fired after Unlisten")
	}
}

func TestPublishedCounts(t *testing.T) {
	b := New(DefaultSubscriptions())
	b.SetSink(func(string, Event, bool) {})
	b.Publish(NewEvent(KindNewContent, nil, "system", 0))
	b.Publish(NewEvent(KindNewContent, nil, "system", 0))
	b.Publish(NewEvent(KindClipDetected, nil, "clip", 1))

	counts := b.PublishedCounts()
	if counts[KindNewContent] != 2 || counts[KindClipDetected] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	if b.TotalPublished() != 3 {
		t.Fatalf("total = %d, want 3", b.TotalPublished())
	}
}

func TestOnKindHandler(t *testing.T) {
	b := New(DefaultSubscriptions())
	b.SetSink(func(string, Event, bool) {})
	fired := 0
	b.OnKind(KindComplianceAlert, func(ev Event) { fired++ })

	b.Publish(NewEvent(KindComplianceAlert, nil, "compliance", 1))
	b.Publish(NewEvent(KindNewContent, nil, "system", 0))
	if fired != 1 {
		t.Fatalf("handler fired %d times, want 1", fired)
	}
}

func TestDefaultSubscriptionsTable(t *testing.T) {
	subs := DefaultSubscriptions()
	if len(subs) != 8 {
		t.Fatalf("kinds = %d, want 8", len(subs))
	}
	breaking := subs[KindBreakingNews]
	want := []string{"social", "trending", "ai_production_director", "live_fact_check"}
	if len(breaking) != len(want) {
		t.Fatalf("BREAKING_NEWS subscribers = %v", breaking)
	}
	for i := range want {
		if breaking[i] != want[i] {
			t.Fatalf("BREAKING_NEWS subscribers = %v, want %v", breaking, want)
		}
	}
}
