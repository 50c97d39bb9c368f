package tools

import (
	"context"

	"github.com/gatherhq/gather/internal/timeparse"
	"github.com/gatherhq/gather/internal/toolargs"
)

var parseDateSpec = toolargs.Spec{
	Tool: "parse_date",
	Fields: []toolargs.Field{
		{Name: "date_description", Required: true, Format: `natural language like "this Friday" or "2025-12-03"`},
		{Name: "default_time"},
	},
}

func (r *Registry) registerDateTools() {
	r.Register(&Tool{
		Name: "parse_date",
		Description: "Convert a natural-language date like 'this Friday', 'tomorrow', 'next Wednesday', " +
			"'tonight', 'this weekend', or an explicit date into an ISO timestamp (YYYY-MM-DDTHH:MM:SS). " +
			"Use this before any calendar tool that needs an ISO date.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"date_description": map[string]any{
					"type":        "string",
					"description": "The date in natural language (e.g., 'this Friday at 6pm', 'tomorrow')",
				},
				"default_time": map[string]any{
					"type":        "string",
					"description": "Time of day to use when the description has none, as HH:MM:SS (default 09:00:00)",
				},
			},
			"required": []string{"date_description"},
		},
		Handler: r.handleParseDate,
	})
}

func (r *Registry) handleParseDate(ctx context.Context, args map[string]string) string {
	args, errMsg := normalize(parseDateSpec, args)
	if errMsg != "" {
		return errMsg
	}

	resolved, err := timeparse.ResolveDate(args["date_description"], args["default_time"], r.now())
	if err != nil {
		return err.Error()
	}
	return resolved
}
