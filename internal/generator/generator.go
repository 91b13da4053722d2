package generator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/shared/utils"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// ErrNoCode is returned when the model reply holds no program.
var ErrNoCode = errors.New("model response missing code")

// Messenger is the part of the Anthropic client the generator uses.
type Messenger interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Options configures a Generator.
type Options struct {
	APIKey      string
	Model       string
	MaxTokens   int64
	Temperature float64
	Retries     int
	Backoff     time.Duration
}

// DefaultOptions returns the generator defaults.
func DefaultOptions() Options {
	return Options{
		Model:       "claude-sonnet-4-5",
		MaxTokens:   4096,
		Temperature: 0.7,
		Retries:     2,
		Backoff:     time.Second,
	}
}

// Generator writes and repairs programs by calling the model directly. It
// satisfies the same Generate/Fix contract as the animation service client.
type Generator struct {
	msgs Messenger
	opts Options
	log  *logging.Logger
}

// New creates a Generator backed by the Anthropic API.
func New(opts Options, log *logging.Logger) *Generator {
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return NewWithMessenger(&client.Messages, opts, log)
}

// NewWithMessenger creates a Generator over msgs.
func NewWithMessenger(msgs Messenger, opts Options, log *logging.Logger) *Generator {
	def := DefaultOptions()
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = def.Temperature
	}
	if opts.Backoff <= 0 {
		opts.Backoff = def.Backoff
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Generator{msgs: msgs, opts: opts, log: logging.OrNop(log).Named("generator")}
}

// Generate writes a program for description.
func (g *Generator) Generate(ctx context.Context, description string) (string, error) {
	if err := utils.ValidateDescription(description); err != nil {
		return "", err
	}
	return g.complete(ctx, "generate", generatePrompt(description))
}

// Fix repairs code that failed with message.
func (g *Generator) Fix(ctx context.Context, brokenCode, message string) (string, error) {
	if err := utils.JoinErrors(utils.ValidateSource(brokenCode), utils.ValidateErrorMessage(message)); err != nil {
		return "", err
	}
	return g.complete(ctx, "fix", fixPrompt(brokenCode, message))
}

func (g *Generator) complete(ctx context.Context, op, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.opts.Model),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	var lastErr error
	for attempt := 0; attempt <= g.opts.Retries; attempt++ {
		if attempt > 0 {
			backoff := g.opts.Backoff << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		start := time.Now()
		resp, err := g.msgs.New(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			lastErr = fmt.Errorf("anthropic api error: %w", err)
			g.log.Warn("model call failed",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}

		code := ExtractCode(replyText(resp))
		g.log.Debug("model call finished",
			zap.String("op", op),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("output_tokens", resp.Usage.OutputTokens),
			zap.String("stop_reason", string(resp.StopReason)),
		)
		if code == "" {
			return "", ErrNoCode
		}
		return code, nil
	}
	return "", fmt.Errorf("%s failed after %d attempts: %w", op, g.opts.Retries+1, lastErr)
}

func replyText(resp *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

var (
	codeTag   = regexp.MustCompile(`(?s)<code>(.*?)</code>`)
	codeFence = regexp.MustCompile("(?s)```(?:javascript|js|p5|html)?[ \\t]*\\n(.*?)\\n?```")
)

// ExtractCode pulls the program out of a model reply: a <code> tag first,
// then a fenced block, then the whole reply when it has neither.
func ExtractCode(reply string) string {
	if m := codeTag.FindStringSubmatch(reply); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	if m := codeFence.FindStringSubmatch(reply); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}
