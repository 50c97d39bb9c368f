// Package tools defines the tools available to the agent.
//
// Every handler funnels its raw arguments through the toolargs
// normalizer before any business logic runs, and converts every domain
// failure into a descriptive observation string rather than an error.
// The agent reads those strings as ordinary tool output and can react
// to them; an error return is reserved for calls that cannot be
// dispatched at all.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/gatherhq/gather/internal/calendar"
	"github.com/gatherhq/gather/internal/llm"
	"github.com/gatherhq/gather/internal/toolargs"
	"github.com/gatherhq/gather/internal/weather"
	"github.com/gatherhq/gather/internal/webhook"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
	// RequiresConfirmation marks calendar-mutating tools that the
	// orchestration loop must gate behind explicit user approval.
	RequiresConfirmation bool
	Handler              func(ctx context.Context, args map[string]string) string
}

// Registry holds available tools and the capability clients they wrap.
type Registry struct {
	tools       map[string]*Tool
	calendar    *calendar.Store
	weather     *weather.Client
	webhook     *webhook.Client
	defaultUser string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRegistry creates a tool registry. weather and webhook may be nil
// when unconfigured; their tools then report that instead of failing.
func NewRegistry(cal *calendar.Store, w *weather.Client, hook *webhook.Client, defaultUser string, logger *slog.Logger) *Registry {
	r := &Registry{
		tools:       make(map[string]*Tool),
		calendar:    cal,
		weather:     w,
		webhook:     hook,
		defaultUser: defaultUser,
		now:         time.Now,
		logger:      logger,
	}
	r.registerDateTools()
	r.registerCalendarTools()
	r.registerWeatherTools()
	r.registerWebhookTools()
	return r
}

// SetNow overrides the reference clock. Used by tests to pin "today".
func (r *Registry) SetNow(now func() time.Time) {
	r.now = now
}

// Register adds a tool to the registry.
func (r *Registry) Register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Schemas returns all tool schemas for the LLM, sorted by name for a
// stable prompt.
func (r *Registry) Schemas() []llm.ToolSchema {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]llm.ToolSchema, 0, len(names))
	for _, n := range names {
		t := r.tools[n]
		out = append(out, llm.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return out
}

// Execute runs a tool by name with the raw JSON argument string the
// model produced. The string is decoded leniently — non-string values
// are stringified, and a completely unparseable payload becomes the
// first declared field so the normalizer can recover it.
func (r *Registry) Execute(ctx context.Context, name string, argsJSON string) (string, error) {
	tool := r.tools[name]
	if tool == nil {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	args := decodeArgs(argsJSON)
	result := tool.Handler(ctx, args)

	r.logger.Debug("tool executed", "tool", name, "result_len", len(result))
	return result, nil
}

// decodeArgs turns the model's argument payload into a string map.
func decodeArgs(argsJSON string) map[string]string {
	args := make(map[string]string)
	if argsJSON == "" {
		return args
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &raw); err != nil {
		// Not JSON at all. Stash the payload under a well-known key;
		// each handler's normalizer treats its first field as the
		// possible carrier of the whole argument set.
		args["_raw"] = argsJSON
		return args
	}

	for k, v := range raw {
		switch t := v.(type) {
		case string:
			args[k] = t
		case float64:
			args[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			args[k] = strconv.FormatBool(t)
		case nil:
			args[k] = ""
		default:
			b, err := json.Marshal(t)
			if err == nil {
				args[k] = string(b)
			}
		}
	}
	return args
}

// normalize runs a spec over raw args, folding an unparseable payload
// into the first field beforehand. The second return value is the
// observation string for a failed normalization; empty means success.
func normalize(spec toolargs.Spec, args map[string]string) (map[string]string, string) {
	if raw, ok := args["_raw"]; ok && len(spec.Fields) > 0 {
		if args[spec.Fields[0].Name] == "" {
			args[spec.Fields[0].Name] = raw
		}
	}
	out, err := spec.Normalize(args)
	if err != nil {
		return out, err.Error()
	}
	return out, ""
}

// user resolves an optional user_id argument to the session default.
func (r *Registry) user(args map[string]string) string {
	if u := args["user_id"]; u != "" {
		return u
	}
	return r.defaultUser
}
