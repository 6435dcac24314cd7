package biz

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/prompts"
	atypes "github.com/lk2023060901/mercari-shopper-backend/internal/agent/types"
	mtypes "github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	apperrors "github.com/lk2023060901/mercari-shopper-backend/internal/pkg/errors"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ChatCompleter is the LLM capability the agent depends on: one completion
// request in, one assistant message out (free text or tool calls).
type ChatCompleter interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage, tools []openai.Tool) (openai.ChatCompletionMessage, error)
}

// Searcher issues a keyword-and-filter search against the marketplace.
type Searcher interface {
	Search(ctx context.Context, filter mtypes.SearchFilter, limit int) ([]mtypes.ItemSummary, error)
}

// fallbackMessage is returned when the conversation cannot be completed
// (round cap hit or unknown tool invocation) and the model produced no text.
const fallbackMessage = "Sorry, I could not complete your request. Please try rephrasing it."

// Config bounds the orchestration loop.
type Config struct {
	MaxRounds     int           // LLM round cap per Respond call
	TopK          int           // selector pick count
	SearchLimit   int           // summaries requested per search
	RoundTimeout  time.Duration // deadline for each LLM round
	DetailTimeout time.Duration // deadline for each detail fetch
}

// DefaultConfig returns the recommended loop bounds.
func DefaultConfig() Config {
	return Config{
		MaxRounds:     6,
		TopK:          3,
		SearchLimit:   20,
		RoundTimeout:  30 * time.Second,
		DetailTimeout: 20 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = d.SearchLimit
	}
	if c.RoundTimeout <= 0 {
		c.RoundTimeout = d.RoundTimeout
	}
	if c.DetailTimeout <= 0 {
		c.DetailTimeout = d.DetailTimeout
	}
}

// toolHandler executes one recognized tool call against the per-call state
// and returns the tool-output payload to feed back to the model.
type toolHandler func(ctx context.Context, call *respondCall, args string) (string, error)

// Agent owns the tool-calling conversation loop. It holds no per-request
// state: every Respond call builds its own conversation and accumulator, so
// one instance is safe for concurrent use.
type Agent struct {
	llm      ChatCompleter
	searcher Searcher
	selector *Selector
	enricher *Enricher
	config   Config
	tools    map[string]toolHandler
	logger   *logger.Logger
}

// respondCall is the state of a single Respond invocation: the append-only
// conversation plus the products from the last completed enrichment stage.
type respondCall struct {
	userInput string
	messages  []openai.ChatCompletionMessage
	products  []mtypes.ItemDetail
}

// NewAgent wires the orchestrator. The selector and enricher are built by
// the caller so their dependencies (pool, fetcher) stay explicit.
func NewAgent(llm ChatCompleter, searcher Searcher, selector *Selector, enricher *Enricher, cfg Config, log *logger.Logger) *Agent {
	cfg.applyDefaults()

	a := &Agent{
		llm:      llm,
		searcher: searcher,
		selector: selector,
		enricher: enricher,
		config:   cfg,
		logger:   log.Named("agent"),
	}
	// Closed dispatch table: recognized tools map to handlers, anything else
	// takes the fatal-unknown path in Respond.
	a.tools = map[string]toolHandler{
		SearchToolName: a.handleSearch,
	}
	return a
}

// Respond drives the conversation loop for one user request and returns the
// assistant's final message plus the enriched product list.
func (a *Agent) Respond(ctx context.Context, userInput string) (*atypes.RecommendationResult, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, apperrors.New(apperrors.ErrAgentInvalidInput, "empty input")
	}

	call := &respondCall{
		userInput: userInput,
		messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompts.System()},
			{Role: openai.ChatMessageRoleUser, Content: userInput},
			{Role: openai.ChatMessageRoleSystem, Content: prompts.LanguageReminder(userInput)},
		},
	}
	tools := []openai.Tool{searchTool()}

	for round := 1; round <= a.config.MaxRounds; round++ {
		roundCtx, cancel := context.WithTimeout(ctx, a.config.RoundTimeout)
		msg, err := a.llm.Complete(roundCtx, call.messages, tools)
		cancel()
		if err != nil {
			return nil, err
		}

		if len(msg.ToolCalls) == 0 {
			// Final message: the loop terminates with whatever the last
			// completed enrichment stage produced.
			a.logger.Info("conversation complete",
				zap.Int("rounds", round),
				zap.Int("products", len(call.products)))
			return &atypes.RecommendationResult{
				Message:  msg.Content,
				Products: call.productsOrEmpty(),
			}, nil
		}

		// The model may batch parallel tool calls in one message. Every call
		// in the batch needs its own tool-output reply, or the next round's
		// request carries a dangling tool_call_id and is rejected. Validate
		// the batch before touching the conversation so an unknown tool is a
		// clean stop, not a half-answered message.
		if name, ok := unknownTool(a.tools, msg.ToolCalls); !ok {
			// Unknown tool is a protocol mismatch for this turn: stop here
			// with the partial result instead of looping on it.
			a.logger.Warn("unknown tool invocation, stopping",
				zap.String("tool", name),
				zap.Int("round", round))
			return &atypes.RecommendationResult{
				Message:  fallbackMessage,
				Products: call.productsOrEmpty(),
			}, nil
		}

		call.messages = append(call.messages, msg)

		for _, toolCall := range msg.ToolCalls {
			output, err := a.tools[toolCall.Function.Name](ctx, call, toolCall.Function.Arguments)
			if err != nil {
				return nil, err
			}

			call.messages = append(call.messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: toolCall.ID,
				Content:    output,
			})
		}
	}

	a.logger.Warn("round cap exceeded",
		zap.Int("max_rounds", a.config.MaxRounds))
	return &atypes.RecommendationResult{
		Message:  fallbackMessage,
		Products: call.productsOrEmpty(),
	}, nil
}

// handleSearch runs one search round: decode the filter, search, pick the
// top candidates, enrich them, and hand the enriched records back to the
// model as the tool output.
func (a *Agent) handleSearch(ctx context.Context, call *respondCall, args string) (string, error) {
	filter := decodeFilter(args)
	a.logger.Info("search tool invoked",
		zap.String("keyword", filter.Keyword),
		zap.Int("price_min", filter.PriceMin),
		zap.Int("price_max", filter.PriceMax))

	summaries, err := a.searcher.Search(ctx, filter, a.config.SearchLimit)
	if err != nil {
		// Search failure degrades to an empty result set for this round; the
		// model sees empty data and can tell the user nothing was found.
		a.logger.Warn("marketplace search failed", zap.Error(err))
		summaries = nil
	}

	if len(summaries) == 0 {
		call.products = nil
		return "[]", nil
	}

	selection := a.selector.Select(ctx, call.userInput, summaries, a.config.TopK)
	if len(selection.Products) == 0 {
		call.products = nil
		return "[]", nil
	}

	details := a.enricher.Enrich(ctx, selection.Products)
	call.products = details

	payload, err := json.Marshal(details)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternalServer, "encode tool output")
	}
	return string(payload), nil
}

// unknownTool reports the first tool call whose name has no handler.
func unknownTool(tools map[string]toolHandler, calls []openai.ToolCall) (string, bool) {
	for _, tc := range calls {
		if _, ok := tools[tc.Function.Name]; !ok {
			return tc.Function.Name, false
		}
	}
	return "", true
}

// productsOrEmpty never returns nil so the JSON result always carries a list.
func (c *respondCall) productsOrEmpty() []mtypes.ItemDetail {
	if c.products == nil {
		return []mtypes.ItemDetail{}
	}
	return c.products
}
