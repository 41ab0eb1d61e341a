// Package generate holds the code-generation collaborator clients. The
// collaborator turns (instruction, schema) into candidate transformation
// code. Its output is untrusted regardless of implementation and always
// passes the validator before it may execute.
package generate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/karthik2365/data-cleaning/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultTimeout bounds one collaborator call.
const DefaultTimeout = 30 * time.Second

// systemPrompt pins the model to the sandbox surface: the pre-bound table,
// no imports, result in `table` or `result`.
const systemPrompt = `You are a code generator for tabular data operations.

You write Starlark code (a Python dialect) operating on a table value named
` + "`table`" + ` that already exists.

THE TABLE SURFACE (methods return new tables, the original is unchanged):
  table.drop_duplicates(), table.dropna(columns=None),
  table.fillna(value, columns=None), table.rename(mapping),
  table.select(columns), table.drop(columns),
  table.sort_by(column, reverse=False), table.head(n),
  table.filter(fn), table.map_column(name, fn), table.with_column(name, fn),
  table.trim_whitespace(), table.lowercase(columns=None),
  table.uppercase(columns=None), table.clean()
  table.columns, len(table), table[name] -> column
  column.mean(), column.sum(), column.min(), column.max(),
  column.unique(), column.null_count()

STRICT RULES:
- Assume ` + "`table`" + ` already exists with the data.
- Do NOT use import or load statements.
- Do NOT read or write files, use the network, or touch the environment.
- Available builtins: len, range, str, int, float, bool, list, dict, tuple,
  min, max, sum, abs, round, sorted, reversed, enumerate, zip, any, all,
  and the math module. Nothing else resolves.
- Rebind ` + "`table`" + ` for table results, or bind ` + "`result`" + ` for a
  summary value (number, string, list, or dict of scalars).
- No while loops, no recursion.

OUTPUT FORMAT:
Return ONLY code. No markdown fences. No explanations.`

// Client is the OpenAI-compatible chat-completions collaborator. The
// original deployment pointed it at a local model endpoint; any server
// speaking the same wire shape works.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// Config selects the collaborator endpoint and model.
type Config struct {
	Endpoint string // base URL of an OpenAI-compatible API
	Model    string
	APIKey   string
	Timeout  time.Duration
}

// NewClient builds a chat-completions collaborator.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		apiCfg.BaseURL = cfg.Endpoint
	}
	return &Client{
		client:  openai.NewClientWithConfig(apiCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "generate"),
	}
}

// Generate asks the model for transformation code. Failures map onto the
// generation error taxonomy: deadline -> timeout, transport -> unavailable,
// unusable completion -> malformed-output. All of them leave the caller
// free to retry with a new instruction.
func (c *Client) Generate(ctx context.Context, instruction string, schema domain.Schema) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(instruction, schema)},
		},
		Temperature: 0,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.ErrGeneration(domain.GenerationTimeout, "collaborator call timed out")
		}
		c.logger.Warn("collaborator call failed", "error", err)
		return "", domain.ErrGeneration(domain.GenerationUnavailable, "collaborator call failed")
	}
	if len(resp.Choices) == 0 {
		return "", domain.ErrGeneration(domain.GenerationMalformedOutput, "collaborator returned no choices")
	}
	code := StripFences(resp.Choices[0].Message.Content)
	if code == "" {
		return "", domain.ErrGeneration(domain.GenerationMalformedOutput, "collaborator returned empty code")
	}
	c.logger.Debug("generated code", "bytes", len(code))
	return code, nil
}

// buildPrompt appends the dataset schema and the instruction to the user
// turn so the model sees current column names and types.
func buildPrompt(instruction string, schema domain.Schema) string {
	var b strings.Builder
	b.WriteString("DATASET SCHEMA:\n")
	for _, f := range schema {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(string(f.Type))
		b.WriteByte('\n')
	}
	b.WriteString("\nUSER REQUEST:\n")
	b.WriteString(instruction)
	b.WriteString("\n\nCODE:")
	return b.String()
}

// StripFences removes a surrounding markdown code block, which models emit
// despite instructions. Inner content is returned trimmed.
func StripFences(code string) string {
	code = strings.TrimSpace(code)
	if !strings.HasPrefix(code, "```") {
		return code
	}
	code = strings.TrimPrefix(code, "```")
	if i := strings.IndexByte(code, '\n'); i >= 0 {
		// Drop a language tag on the fence line.
		first := strings.TrimSpace(code[:i])
		if !strings.ContainsAny(first, " \t") {
			code = code[i+1:]
		}
	}
	code = strings.TrimSuffix(strings.TrimSpace(code), "```")
	return strings.TrimSpace(code)
}

var _ domain.Generator = (*Client)(nil)
