// Package memory implements the persistent memory layer: per-agent
// append-only markdown journals, the shared inter-agent event log, and the
// global task history table. Files are bounded by entry count and trimmed
// oldest-first in a single atomic rename pass.
package memory

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	agentsSubdir = "agents"
	systemSubdir = "system"

	commsFile   = "inter_agent_comms.md"
	historyFile = "task_history.md"
	userFile    = "USER.md"
)

// Entry is one journal row, recorded per completed task.
type Entry struct {
	Time          time.Time
	TaskID        string
	Success       bool
	Mode          string
	InputSummary  string
	OutputSummary string
	Subscribers   []string
	DurationMS    int64
}

// Journal owns all memory files under a single directory. Writes are driven
// by the orchestrator's task-worker goroutine; the internal mutex only
// protects against concurrent reads from the CLI and gateway status paths.
type Journal struct {
	dir        string
	maxEntries int
	trimTo     int

	mu    sync.Mutex
	files map[string]*journalFile // relative path → cached state
	prefs string                  // cached USER.md content
}

type journalFile struct {
	entries   []string // rendered markdown per entry, without trailing newline
	successes int
	totalDur  int64
	loaded    bool
	// synced means the on-disk file matches entries[:len-1] plus a
	// fixed-width header region, so the next flush can append in place.
	synced bool
}

// NewJournal creates the journal layout under dir, seeding system/USER.md if
// missing.
func NewJournal(dir string, maxEntries, trimTo int) (*Journal, error) {
	if maxEntries <= 0 {
		maxEntries = 2000
	}
	if trimTo <= 0 || trimTo >= maxEntries {
		trimTo = maxEntries * 9 / 10
	}
	j := &Journal{
		dir:        dir,
		maxEntries: maxEntries,
		trimTo:     trimTo,
		files:      make(map[string]*journalFile),
	}
	for _, sub := range []string{agentsSubdir, systemSubdir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("memory layout: %w", err)
		}
	}
	userPath := filepath.Join(dir, systemSubdir, userFile)
	if _, err := os.Stat(userPath); os.IsNotExist(err) {
		seed := "# User Preferences\n\nEdit this file to steer agent output. The core reads it, never writes it.\n"
		_ = os.WriteFile(userPath, []byte(seed), 0o644)
	}
	j.reloadPrefs()
	return j, nil
}

// Dir returns the memory root directory.
func (j *Journal) Dir() string { return j.dir }

// Append records one task outcome in the per-agent journal.
func (j *Journal) Append(agentKey string, e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rel := filepath.Join(agentsSubdir, slug(agentKey)+".md")
	f := j.load(rel)

	status := "ok"
	if !e.Success {
		status = "fail"
	}
	subs := "none"
	if len(e.Subscribers) > 0 {
		subs = strings.Join(e.Subscribers, ", ")
	}
	entry := fmt.Sprintf(
		"### %s · task %s · %s\n- mode: %s\n- input: %s\n- output: %s\n- triggered: %s\n- duration: %dms",
		e.Time.UTC().Format(time.RFC3339), e.TaskID, status,
		e.Mode, oneLine(e.InputSummary), oneLine(e.OutputSummary), subs, e.DurationMS,
	)

	f.entries = append(f.entries, entry)
	if e.Success {
		f.successes++
	}
	f.totalDur += e.DurationMS
	j.trim(f)

	header := j.agentHeader(agentKey, f)
	return j.flush(rel, header, f, entry)
}

// AppendEvent records one published event in the shared inter-agent log.
func (j *Journal) AppendEvent(kind, sourceAgent, taskID string, subscribers []string, payloadSummary string, tasksQueued int) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rel := filepath.Join(agentsSubdir, commsFile)
	f := j.load(rel)

	subs := "none"
	if len(subscribers) > 0 {
		subs = strings.Join(subscribers, ", ")
	}
	source := sourceAgent
	if taskID != "" {
		source = fmt.Sprintf("%s (task %s)", sourceAgent, taskID)
	}
	entry := fmt.Sprintf(
		"### %s · %s\n- source: %s\n- subscribers: %s\n- payload: %s\n- tasks queued: %d",
		time.Now().UTC().Format(time.RFC3339), kind, source, subs, oneLine(payloadSummary), tasksQueued,
	)

	f.entries = append(f.entries, entry)
	j.trim(f)

	header := [2]string{
		"# Inter-Agent Communications",
		fmt.Sprintf("> updated %s · entries %d", time.Now().UTC().Format(time.RFC3339), len(f.entries)),
	}
	return j.flush(rel, header, f, entry)
}

// AppendTaskRow records one line in the global task audit table.
func (j *Journal) AppendTaskRow(taskID, agentKey, status, priority, mode, triggeredBy string, durationMS int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	rel := filepath.Join(agentsSubdir, historyFile)
	f := j.load(rel)

	if triggeredBy == "" {
		triggeredBy = "user"
	}
	entry := fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %dms | %s |",
		time.Now().UTC().Format(time.RFC3339), taskID, agentKey, status, priority, mode, durationMS, triggeredBy)

	f.entries = append(f.entries, entry)
	j.trim(f)

	header := [2]string{
		"# Task History",
		fmt.Sprintf("> updated %s · entries %d", time.Now().UTC().Format(time.RFC3339), len(f.entries)),
	}
	return j.flush(rel, header, f, entry)
}

// EntryCount returns the cached entry count for an agent's journal.
func (j *Journal) EntryCount(agentKey string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	f := j.load(filepath.Join(agentsSubdir, slug(agentKey)+".md"))
	return len(f.entries)
}

// RecentEntries returns up to n most recent rendered entries for an agent.
func (j *Journal) RecentEntries(agentKey string, n int) []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	f := j.load(filepath.Join(agentsSubdir, slug(agentKey)+".md"))
	if n <= 0 || n > len(f.entries) {
		n = len(f.entries)
	}
	out := make([]string, n)
	copy(out, f.entries[len(f.entries)-n:])
	return out
}

func (j *Journal) agentHeader(agentKey string, f *journalFile) [2]string {
	pct := 0.0
	avg := int64(0)
	if n := len(f.entries); n > 0 {
		pct = float64(f.successes) / float64(n) * 100
		avg = f.totalDur / int64(n)
	}
	return [2]string{
		"# Agent Journal — " + agentKey,
		fmt.Sprintf("> updated %s · entries %d · success %.1f%% · avg %dms",
			time.Now().UTC().Format(time.RFC3339), len(f.entries), pct, avg),
	}
}

// trim discards the oldest entries once the cap is exceeded. Success and
// duration tallies are rebased by re-scanning the survivors so the header
// stays truthful after a trim.
func (j *Journal) trim(f *journalFile) {
	if len(f.entries) <= j.maxEntries {
		return
	}
	f.entries = f.entries[len(f.entries)-j.trimTo:]
	f.synced = false
	f.successes = 0
	f.totalDur = 0
	for _, e := range f.entries {
		if strings.HasSuffix(firstLine(e), "· ok") {
			f.successes++
		}
		f.totalDur += parseDuration(e)
	}
}

// headerPad is the fixed byte width of the header's second line. Padding it
// keeps the header region a constant size, so steady-state flushes rewrite
// the header in place and append the new entry instead of rewriting the file.
const headerPad = 120

// fixedHeader renders the two header lines with the second padded to
// headerPad bytes. ok is false when the line does not fit.
func fixedHeader(header [2]string) (string, bool) {
	if len(header[1]) > headerPad {
		return header[0] + "\n" + header[1] + "\n\n", false
	}
	return header[0] + "\n" + header[1] + strings.Repeat(" ", headerPad-len(header[1])) + "\n\n", true
}

// flush persists the file. When the on-disk state is known to match (synced),
// only the header region is rewritten and the new tail entry appended. The
// first flush after load and every trim fall back to a full rewrite through a
// temp file + rename, the same atomic-write idiom used for session
// persistence.
func (j *Journal) flush(rel string, header [2]string, f *journalFile, tail string) error {
	path := filepath.Join(j.dir, rel)
	hdr, fixed := fixedHeader(header)

	if fixed && f.synced && tail != "" {
		if err := j.appendInPlace(path, hdr, tail); err == nil {
			return nil
		}
		// fall through to a full rewrite if the file went missing
	}

	var b strings.Builder
	b.WriteString(hdr)
	for _, e := range f.entries {
		b.WriteString(e)
		b.WriteString("\n\n")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".journal-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	f.synced = fixed
	return nil
}

func (j *Journal) appendInPlace(path, hdr, tail string) error {
	fh, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer fh.Close()
	if _, err := fh.WriteAt([]byte(hdr), 0); err != nil {
		return err
	}
	if _, err := fh.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	_, err = fh.WriteString(tail + "\n\n")
	return err
}

// load returns the cached file state, reading it from disk on first touch.
func (j *Journal) load(rel string) *journalFile {
	if f, ok := j.files[rel]; ok {
		return f
	}
	f := &journalFile{loaded: true}
	j.files[rel] = f

	data, err := os.ReadFile(filepath.Join(j.dir, rel))
	if err != nil {
		return f
	}
	body := string(data)
	if strings.HasSuffix(rel, historyFile) {
		for _, line := range strings.Split(body, "\n") {
			if strings.HasPrefix(line, "| ") {
				f.entries = append(f.entries, line)
			}
		}
		return f
	}
	for i, chunk := range strings.Split(body, "\n### ") {
		if i == 0 {
			continue // header block
		}
		entry := "### " + strings.TrimRight(chunk, "\n")
		f.entries = append(f.entries, entry)
		if strings.HasSuffix(firstLine(entry), "· ok") {
			f.successes++
		}
		f.totalDur += parseDuration(entry)
	}
	return f
}

func slug(agentKey string) string {
	s := strings.ToLower(agentKey)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
	return s
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	if len(s) > 240 {
		s = s[:240] + "…"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func parseDuration(entry string) int64 {
	i := strings.LastIndex(entry, "- duration: ")
	if i < 0 {
		return 0
	}
	rest := entry[i+len("- duration: "):]
	var ms int64
	for _, r := range rest {
		if r < '0' || r > '9' {
			break
		}
		ms = ms*10 + int64(r-'0')
	}
	return ms
}
