package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gatherhq/gather/internal/toolargs"
)

var webhookSpec = toolargs.Spec{
	Tool: "trigger_webhook",
	Fields: []toolargs.Field{
		{Name: "payload_json", Required: true, Format: "a JSON object"},
	},
}

func (r *Registry) registerWebhookTools() {
	r.Register(&Tool{
		Name:        "trigger_webhook",
		Description: "Trigger the automation webhook with an arbitrary JSON payload.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"payload_json": map[string]any{
					"type":        "string",
					"description": "The payload to send, as a JSON object string",
				},
			},
			"required": []string{"payload_json"},
		},
		Handler: r.handleTriggerWebhook,
	})
}

func (r *Registry) handleTriggerWebhook(ctx context.Context, args map[string]string) string {
	if r.webhook == nil {
		return "Webhook is not configured."
	}

	// The payload is itself JSON, so the normalizer's JSON-object rule
	// would dismantle it; this tool bypasses detection and applies only
	// the required-field check.
	raw := strings.TrimSpace(args["payload_json"])
	if raw == "" {
		raw = strings.TrimSpace(args["_raw"])
	}
	if raw == "" {
		err := &toolargs.MissingFieldError{Tool: webhookSpec.Tool, Field: "payload_json", Format: "a JSON object"}
		return err.Error()
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "Invalid JSON payload."
	}

	result, err := r.webhook.Trigger(ctx, payload)
	if err != nil {
		return fmt.Sprintf("Error triggering webhook: %s", err)
	}
	return fmt.Sprintf("Webhook response: %s", string(result))
}
