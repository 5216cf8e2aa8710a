package memory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func entryAt(i int) Entry {
	return Entry{
		Time:          time.Date(2026, 8, 24, 12, 0, i, 0, time.UTC),
		TaskID:        "task-" + string(rune('a'+i)),
		Success:       true,
		Mode:          "demo",
		InputSummary:  "input",
		OutputSummary: "output",
		DurationMS:    int64(10 * (i + 1)),
	}
}

func TestAppendWritesHeaderAndEntry(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(dir, 10, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := j.Append("caption", entryAt(0)); err != nil {
		t.Fatalf("append: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "agents", "caption.md"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	body := string(raw)
	lines := strings.Split(body, "\n")
	if lines[0] != "# Agent Journal — caption" {
		t.Fatalf("title = %q", lines[0])
	}
	if !strings.Contains(lines[1], "entries 1") || !strings.Contains(lines[1], "success 100.0%") {
		t.Fatalf("summary line = %q", lines[1])
	}
	if !strings.Contains(body, "### 2026-08-24T12:00:00Z · task task-a · ok") {
		t.Fatalf("entry heading missing:\n%s", body)
	}
}

func TestSteadyStateAppendsKeepHeaderRegionFixed(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(dir, 10, 5)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	path := filepath.Join(dir, "agents", "caption.md")

	j.Append("caption", entryAt(0))
	first, _ := os.ReadFile(path)
	hdrLen := strings.Index(string(first), "\n\n") + 2
	if hdrLen < headerPad {
		t.Fatalf("header region = %d bytes, want padded to at least %d", hdrLen, headerPad)
	}

	j.Append("caption", entryAt(1))
	j.Append("caption", entryAt(2))
	second, _ := os.ReadFile(path)
	body := string(second)

	// The header region stays the same size across appends, so the update
	// rewrites it in place and the entries below are untouched.
	if got := strings.Index(body, "\n\n") + 2; got != hdrLen {
		t.Fatalf("header region grew: %d → %d bytes", hdrLen, got)
	}
	if body[hdrLen:len(first)] != string(first[hdrLen:]) {
		t.Fatal("existing entries were rewritten by an append")
	}
	if !strings.Contains(strings.Split(body, "\n")[1], "entries 3") {
		t.Fatalf("header not updated:\n%s", body[:hdrLen])
	}
	for _, id := range []string{"task-a", "task-b", "task-c"} {
		if !strings.Contains(body, id) {
			t.Fatalf("entry %s missing after appends", id)
		}
	}
}

func TestTrimKeepsRecentEntries(t *testing.T) {
	dir := t.TempDir()
	j, err := NewJournal(dir, 5, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 7; i++ {
		if err := j.Append("clip", entryAt(i)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	// Cap 5, trim to 3: the 6th append trims to 3, the 7th lands on top.
	if n := j.EntryCount("clip"); n != 4 {
		t.Fatalf("entries = %d, want 4", n)
	}
	recent := j.RecentEntries("clip", 1)
	if len(recent) != 1 || !strings.Contains(recent[0], "task-g") {
		t.Fatalf("most recent = %v", recent)
	}
	oldest := j.RecentEntries("clip", 4)[0]
	if !strings.Contains(oldest, "task-d") {
		t.Fatalf("oldest survivor = %q, want task-d", oldest)
	}
}

func TestJournalReloadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	j, _ := NewJournal(dir, 10, 5)
	j.Append("rights", entryAt(0))
	failed := entryAt(1)
	failed.Success = false
	failed.OutputSummary = "license check failed"
	j.Append("rights", failed)

	// A fresh journal over the same directory sees the same state.
	j2, err := NewJournal(dir, 10, 5)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if n := j2.EntryCount("rights"); n != 2 {
		t.Fatalf("entries after reload = %d, want 2", n)
	}
	recent := j2.RecentEntries("rights", 2)
	if !strings.Contains(recent[1], "· fail") {
		t.Fatalf("failure marker lost on reload: %q", recent[1])
	}
}

func TestAppendEventAndTaskRow(t *testing.T) {
	dir := t.TempDir()
	j, _ := NewJournal(dir, 10, 5)

	err := j.AppendEvent("TRENDING_SPIKE", "trending", "task-1",
		[]string{"social", "archive"}, "velocity_score=94", 2)
	if err != nil {
		t.Fatalf("append event: %v", err)
	}
	comms, _ := os.ReadFile(filepath.Join(dir, "agents", "inter_agent_comms.md"))
	if !strings.Contains(string(comms), "TRENDING_SPIKE") ||
		!strings.Contains(string(comms), "subscribers: social, archive") {
		t.Fatalf("comms log:\n%s", comms)
	}

	if err := j.AppendTaskRow("task-1", "trending", "COMPLETED", "NORMAL", "demo", "", 42); err != nil {
		t.Fatalf("append row: %v", err)
	}
	hist, _ := os.ReadFile(filepath.Join(dir, "agents", "task_history.md"))
	if !strings.Contains(string(hist), "| task-1 | trending | COMPLETED | NORMAL | demo | 42ms | user |") {
		t.Fatalf("history row:\n%s", hist)
	}
}

func TestUserPrefsSeededOnce(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewJournal(dir, 10, 5); err != nil {
		t.Fatalf("new: %v", err)
	}
	path := filepath.Join(dir, "system", "USER.md")
	if err := os.WriteFile(path, []byte("# User Preferences\n\nAlways answer in Spanish.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	j, err := NewJournal(dir, 10, 5)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !strings.Contains(j.UserPrefs(), "Spanish") {
		t.Fatal("existing USER.md was not preserved")
	}
}
