package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/brightpath-edu/iepforge/internal/domain/template"
	"github.com/brightpath-edu/iepforge/internal/options"
	"github.com/brightpath-edu/iepforge/pkg/errorx"
	"github.com/brightpath-edu/iepforge/pkg/logger"
)

const (
	errGenerationFailed = 130601
	errUpstreamAuth     = 130602
)

func init() {
	errorx.MustRegister(errorx.NewCoder(errGenerationFailed, 422, "section generation failed", ""))
	errorx.MustRegister(errorx.NewCoder(errUpstreamAuth, 401, "llm upstream authentication/quota error", ""))
}

// Config bundles the LLM Generator's dependencies (§4.6, §6).
type Config struct {
	ChatModel model.BaseChatModel
	ModelID   string
}

type completedConfig struct{ *Config }

func (c *Config) Complete() *completedConfig { return &completedConfig{c} }

// New builds a Generator from a completed Config.
func (c *completedConfig) New() (*Generator, error) {
	if c.ChatModel == nil {
		return nil, fmt.Errorf("generator: ChatModel is required")
	}
	return &Generator{model: c.ChatModel, modelID: c.ModelID}, nil
}

// NewFromOptions resolves a vendor Provider from the registry and builds its
// chat model, then wraps it in a Generator (§6: llm.provider, llm.model-id).
func NewFromOptions(ctx context.Context, registry *Registry, opts *options.LLMOptions) (*Generator, error) {
	factory, err := registry.Get(opts.Provider)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	cm, err := factory().BuildChatModel(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("generator: build chat model for provider %q: %w", opts.Provider, err)
	}
	return (&Config{ChatModel: cm, ModelID: opts.ModelID}).Complete().New()
}

// Generator implements the public generate_section(prompt, section_spec)
// operation (§4.6), grounded on the teacher's model_prober.go direct
// cm.Generate(ctx, []*schema.Message) call shape.
type Generator struct {
	model   model.BaseChatModel
	modelID string
}

// Section is the outcome of one successful generate_section call: the
// validated/repaired JSON object, the raw response text whose hash is
// recorded on the trace, the truncated field names (if any), and how many
// retries it took.
type Section struct {
	Content          map[string]any
	RawResponse      string
	TruncatedFields  []string
	Retries          int
	Outcome          string // "ok" | "retried"
}

// maxParseRetries / maxSchemaRetries are the bounded retry counts from
// §4.6: "up to 2 LLM retries on JSONParseError or empty response; 1 retry
// on SchemaMismatchError".
const (
	maxParseRetries  = 2
	maxSchemaRetries = 1
)

// GenerateSection invokes the LLM once (plus bounded retries) for one
// template section and returns validated, schema-checked content.
func (g *Generator) GenerateSection(ctx context.Context, prompt string, section template.SectionSpec) (*Section, error) {
	messages := []*schema.Message{
		{Role: schema.User, Content: prompt},
	}

	parseAttempts := 0
	schemaAttempts := 0
	retries := 0

	for {
		raw, err := g.invoke(ctx, messages)
		if err != nil {
			if isAuthOrQuotaError(err) {
				return nil, errorx.NewKind(errorx.KindGenerationFailed,
					errorx.WrapC(err, errUpstreamAuth, "llm call for section %s", section.SectionKey))
			}
			return nil, errorx.NewKind(errorx.KindUpstreamUnavailable,
				errorx.WrapC(err, errGenerationFailed, "llm call for section %s", section.SectionKey))
		}

		if raw == "" {
			if parseAttempts >= maxParseRetries {
				return nil, genFailed(section, "empty response after retries")
			}
			parseAttempts++
			retries++
			logger.Warn("[Generator] section=%s empty response, retry %d/%d", section.SectionKey, parseAttempts, maxParseRetries)
			continue
		}

		obj, err := parseAndRepair(raw)
		if err != nil {
			if parseAttempts >= maxParseRetries {
				return nil, genFailed(section, fmt.Sprintf("persistent JSON parse failure: %v", err))
			}
			parseAttempts++
			retries++
			logger.Warn("[Generator] section=%s JSON parse error, retry %d/%d: %v", section.SectionKey, parseAttempts, maxParseRetries, err)
			continue
		}

		if err := checkSchema(obj, section); err != nil {
			if schemaAttempts >= maxSchemaRetries {
				return nil, genFailed(section, fmt.Sprintf("persistent schema mismatch: %v", err))
			}
			schemaAttempts++
			retries++
			logger.Warn("[Generator] section=%s schema mismatch, corrective retry %d/%d: %v", section.SectionKey, schemaAttempts, maxSchemaRetries, err)
			messages = append(messages, &schema.Message{
				Role:    schema.User,
				Content: fmt.Sprintf("Your previous response was invalid: %v. Return ONLY a single corrected JSON object matching the required fields. No markdown, no commentary.", err),
			})
			continue
		}

		truncated := truncateOverlong(obj, section)
		outcome := "ok"
		if retries > 0 {
			outcome = "retried"
		}
		return &Section{
			Content:         obj,
			RawResponse:     raw,
			TruncatedFields: truncated,
			Retries:         retries,
			Outcome:         outcome,
		}, nil
	}
}

func genFailed(section template.SectionSpec, reason string) error {
	return errorx.NewKind(errorx.KindGenerationFailed,
		errorx.WithCode(errGenerationFailed, "section %s: %s", section.SectionKey, reason))
}

func (g *Generator) invoke(ctx context.Context, messages []*schema.Message) (string, error) {
	start := time.Now()
	msg, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	logger.Info("[Generator] model=%s invoked in %s", g.modelID, time.Since(start))
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

// isAuthOrQuotaError classifies upstream authentication/quota failures,
// which §4.6 says get "no retries ... surfaced immediately". The eino
// chat-model adapters don't expose a typed error here, so this matches on
// the vendor-SDK error text the way the teacher's error wrapping does for
// upstream calls elsewhere in this repo.
func isAuthOrQuotaError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"401", "403", "unauthorized", "invalid api key", "quota", "rate limit", "insufficient_quota"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
