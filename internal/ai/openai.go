package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const defaultInterpretTimeout = 15 * time.Second

// OpenAI interprets scheduling commands with a chat-completion call,
// constrained to the Suggestion JSON schema. One call per request, no
// retries: a slow or broken upstream should fail fast into the local
// fallback, not stall the user.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewOpenAI(apiKey, model string, timeout time.Duration, logger *slog.Logger) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = defaultInterpretTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAI{
		client:  openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0)),
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

func (o *OpenAI) Interpret(ctx context.Context, command string, candidates []string) (*Suggestion, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	systemPrompt := buildSystemPrompt(candidates)

	o.logger.Debug("invoking interpreter",
		"model", o.model,
		"candidates", len(candidates),
		"command_len", len(command),
	)

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(command)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "slot_suggestion",
					Schema: suggestionSchema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Error("interpreter call failed", "error", err, "elapsed", elapsed)
		return nil, fmt.Errorf("interpreting command: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("interpreter returned no choices")
	}

	content := resp.Choices[0].Message.Content
	o.logger.Debug("interpreter response", "elapsed", elapsed, "content_len", len(content))

	var suggestion Suggestion
	if err := json.Unmarshal([]byte(content), &suggestion); err != nil {
		o.logger.Error("failed to parse suggestion", "error", err, "raw", truncateStr(content, 500))
		return nil, fmt.Errorf("parsing suggestion: %w", err)
	}

	return &suggestion, nil
}

func truncateStr(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
