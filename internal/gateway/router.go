package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/providers"
)

// Route is the router's decision for one inbound message.
type Route struct {
	AgentKey   string         // empty for system commands
	System     string         // "status", "connectors", "help"
	Command    string         // slash command name, for loading placeholders
	Params     map[string]any // agent input
	Tier       int            // 1 slash, 2 keyword, 3 llm
	Confidence float64
}

// slashToAgent maps slash command suffixes (after /miq-) to agent keys.
var slashToAgent = map[string]string{
	"caption":         "caption",
	"clip":            "clip",
	"compliance":      "compliance",
	"archive":         "archive",
	"social":          "social",
	"localize":        "localize",
	"rights":          "rights",
	"trending":        "trending",
	"deepfake":        "deepfake",
	"factcheck":       "factcheck",
	"audience":        "audience",
	"production":      "ai_production_director",
	"brand":           "brand",
	"carbon":          "carbon",
	"ingest":          "ingest",
	"signal":          "signal",
	"playout":         "playout",
	"ott":             "ott",
	"newsroom":        "newsroom",
	"live-fact-check": "live_fact_check",
}

// systemCommands are handled by the gateway itself, without a task.
var systemCommands = map[string]bool{"status": true, "connectors": true, "help": true}

// keywordRule is one tier-2 pattern. Rules are checked in order; first match
// wins.
type keywordRule struct {
	re    *regexp.Regexp
	agent string
}

var keywordRules = []keywordRule{
	{regexp.MustCompile(`(?i)\b(deepfake|synthetic|manipulated)\b`), "deepfake"},
	{regexp.MustCompile(`(?i)\blive\b.*\bfact.?check|fact.?check.*\blive\b`), "live_fact_check"},
	{regexp.MustCompile(`(?i)\bfact.?check|verify\b.*\bclaim`), "factcheck"},
	{regexp.MustCompile(`(?i)\b(caption|subtitle|transcrib)`), "caption"},
	{regexp.MustCompile(`(?i)\b(clip|viral moment|shorts|vertical video)`), "clip"},
	{regexp.MustCompile(`(?i)\b(compliance|garm|brand.?safety|standards review)\b`), "compliance"},
	{regexp.MustCompile(`(?i)\b(translate|localiz|subtitle in|spanish|french|german|portuguese|japanese|arabic)\b`), "localize"},
	{regexp.MustCompile(`(?i)\b(rights|licens|territor|clearance)\b`), "rights"},
	{regexp.MustCompile(`(?i)\b(trending|velocity|what.?s hot)\b`), "trending"},
	{regexp.MustCompile(`(?i)\b(audience|ratings|viewers|retention)\b`), "audience"},
	{regexp.MustCompile(`(?i)\b(rundown|camera cue|director)\b`), "ai_production_director"},
	{regexp.MustCompile(`(?i)\b(sponsor|brand exposure|placement|makegood)\b`), "brand"},
	{regexp.MustCompile(`(?i)\b(carbon|emission|energy|co2)\b`), "carbon"},
	{regexp.MustCompile(`(?i)\b(ingest|qc|loudness|arriv)\b`), "ingest"},
	{regexp.MustCompile(`(?i)\b(signal|transmission|contribution feed|scte)\b`), "signal"},
	{regexp.MustCompile(`(?i)\b(playout|on.?air schedule|hold the|transmission schedule)\b`), "playout"},
	{regexp.MustCompile(`(?i)\b(ott|stream|manifest|drm|rendition)\b`), "ott"},
	{regexp.MustCompile(`(?i)\b(newsroom|wire|rundown)\b`), "newsroom"},
	{regexp.MustCompile(`(?i)\b(archive|catalog|find.*footage|search.*asset)`), "archive"},
	{regexp.MustCompile(`(?i)\b(social|post|tweet|instagram|tiktok)\b`), "social"},
}

var (
	urlPattern    = regexp.MustCompile(`https?://[^\s"'<>]+`)
	quotedPattern = regexp.MustCompile(`"([^"]+)"|“([^”]+)”`)
)

// Router resolves inbound messages to agents in three tiers: exact slash
// commands, ordered keyword rules, then an LLM fallback when configured.
type Router struct {
	agents *agent.Registry
	llm    *providers.Client // nil disables tier 3
}

// NewRouter creates a router over the registered agents.
func NewRouter(agents *agent.Registry, llm *providers.Client) *Router {
	return &Router{agents: agents, llm: llm}
}

// ParseSlash resolves a bare slash command, e.g. command "/miq-caption" with
// free text arguments. ok is false when the command is not one of ours.
func (r *Router) ParseSlash(command, text string) (Route, bool) {
	name := strings.TrimPrefix(strings.TrimSpace(command), "/")
	name = strings.TrimPrefix(name, "miq-")
	if systemCommands[name] {
		return Route{System: name, Command: name, Tier: 1, Confidence: 1}, true
	}
	key, ok := slashToAgent[name]
	if !ok {
		return Route{}, false
	}
	return Route{
		AgentKey:   key,
		Command:    name,
		Params:     extractParams(text),
		Tier:       1,
		Confidence: 1,
	}, true
}

// Resolve routes a free-form message. Messages that begin with a slash
// command take tier 1; otherwise keyword rules, then the LLM.
func (r *Router) Resolve(ctx context.Context, text string) Route {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") {
		cmd := trimmed
		rest := ""
		if i := strings.IndexByte(trimmed, ' '); i > 0 {
			cmd, rest = trimmed[:i], strings.TrimSpace(trimmed[i+1:])
		}
		if rt, ok := r.ParseSlash(cmd, rest); ok {
			return rt
		}
	}

	for _, rule := range keywordRules {
		if rule.re.MatchString(trimmed) {
			return Route{
				AgentKey:   rule.agent,
				Command:    commandFor(rule.agent),
				Params:     extractParams(trimmed),
				Tier:       2,
				Confidence: 0.85,
			}
		}
	}

	if rt, ok := r.resolveLLM(ctx, trimmed); ok {
		return rt
	}
	return Route{System: "help", Command: "help", Tier: 3}
}

// Slash serializes a route back to its slash form, so a routed message can be
// replayed as an explicit command (action buttons use this). Flag parameters
// come back as --key=value tokens; url and quoted are derived from the text,
// so only the text (or a carried-over url) is emitted.
func (r *Router) Slash(rt Route) string {
	if rt.System != "" {
		return "/miq-" + rt.System
	}
	parts := []string{"/miq-" + commandFor(rt.AgentKey)}
	flags := make([]string, 0, len(rt.Params))
	for k := range rt.Params {
		switch k {
		case "text", "url", "quoted":
			continue
		}
		flags = append(flags, k)
	}
	sort.Strings(flags)
	for _, k := range flags {
		if v, ok := rt.Params[k].(bool); ok {
			if v {
				parts = append(parts, "--"+k)
			}
			continue
		}
		parts = append(parts, fmt.Sprintf("--%s=%v", k, rt.Params[k]))
	}
	if t, _ := rt.Params["text"].(string); t != "" {
		parts = append(parts, t)
	} else if u, _ := rt.Params["url"].(string); u != "" {
		parts = append(parts, u)
	}
	return strings.Join(parts, " ")
}

// commandFor inverts slashToAgent.
func commandFor(agentKey string) string {
	for cmd, key := range slashToAgent {
		if key == agentKey {
			return cmd
		}
	}
	return agentKey
}

// extractParams pulls the structured pieces out of free text: --key=value and
// --flag arguments, the first URL, and any quoted phrase, with the remaining
// text preserved.
func extractParams(text string) map[string]any {
	params := map[string]any{}
	var rest []string
	for _, tok := range strings.Fields(text) {
		if k, ok := strings.CutPrefix(tok, "--"); ok && k != "" && !strings.HasPrefix(k, "=") {
			if name, val, found := strings.Cut(k, "="); found {
				params[name] = val
			} else {
				params[k] = true
			}
			continue
		}
		rest = append(rest, tok)
	}
	text = strings.Join(rest, " ")
	if text != "" {
		params["text"] = text
	}
	if u := urlPattern.FindString(text); u != "" {
		params["url"] = u
	}
	if m := quotedPattern.FindStringSubmatch(text); m != nil {
		q := m[1]
		if q == "" {
			q = m[2]
		}
		params["quoted"] = q
	}
	return params
}

// resolveLLM asks the model to pick an agent. The reply contract is two
// lines: the agent key, then a JSON object of parameters (may be {}).
func (r *Router) resolveLLM(ctx context.Context, text string) (Route, bool) {
	if r.llm == nil {
		return Route{}, false
	}
	reply, err := r.llm.Complete(ctx, r.catalogPrompt(),
		"Message: "+text+"\nReply with exactly two lines: the agent key, then a JSON object of parameters.")
	if err != nil {
		slog.Warn("llm routing failed", "error", err)
		return Route{}, false
	}
	lines := strings.SplitN(strings.TrimSpace(reply), "\n", 2)
	key := strings.TrimSpace(lines[0])
	if !r.agents.Has(key) {
		slog.Debug("llm routed to unknown agent", "key", key)
		return Route{}, false
	}
	params := map[string]any{"text": text}
	if len(lines) == 2 {
		var extra map[string]any
		if err := json.Unmarshal([]byte(strings.TrimSpace(lines[1])), &extra); err == nil {
			for k, v := range extra {
				params[k] = v
			}
		}
	}
	return Route{
		AgentKey:   key,
		Command:    commandFor(key),
		Params:     params,
		Tier:       3,
		Confidence: 0.6,
	}, true
}

func (r *Router) catalogPrompt() string {
	keys := r.agents.Keys()
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("You route operator messages to media-operations agents. Agents:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, r.agents.Get(k).Description())
	}
	b.WriteString("Pick the single best agent key for the message.")
	return b.String()
}
