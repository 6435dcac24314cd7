package biz

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/lk2023060901/mercari-shopper-backend/internal/agent/prompts"
	mtypes "github.com/lk2023060901/mercari-shopper-backend/internal/marketplace/types"
	"github.com/lk2023060901/mercari-shopper-backend/internal/pkg/logger"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Selection is the outcome of a top-k pick: the model's raw reply plus the
// reconciled candidate records in the model's ranking order.
type Selection struct {
	Message  string
	Products []mtypes.ItemSummary
}

// Selector asks the LLM to pick the best-matching candidates and maps the
// returned ids back onto the candidate records. It never fails: any decode
// problem degrades to an empty selection, which callers treat as "no safe
// recommendation".
type Selector struct {
	llm    ChatCompleter
	logger *logger.Logger
}

// NewSelector creates a selector on top of a chat-completion client.
func NewSelector(llm ChatCompleter, log *logger.Logger) *Selector {
	return &Selector{
		llm:    llm,
		logger: log.Named("selector"),
	}
}

// Select runs one non-tool LLM call constrained to return a JSON list of up
// to k item_id values chosen from candidates, then reconciles ids to records.
func (s *Selector) Select(ctx context.Context, userInput string, candidates []mtypes.ItemSummary, k int) Selection {
	if len(candidates) == 0 {
		return Selection{}
	}

	candidatesJSON, err := json.Marshal(candidates)
	if err != nil {
		s.logger.Warn("failed to encode candidates", zap.Error(err))
		return Selection{}
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompts.Selector(k)},
		{Role: openai.ChatMessageRoleUser, Content: userInput},
		{Role: openai.ChatMessageRoleAssistant, Content: prompts.CandidateList(string(candidatesJSON))},
	}

	msg, err := s.llm.Complete(ctx, messages, nil)
	if err != nil {
		s.logger.Warn("selection call failed", zap.Error(err))
		return Selection{}
	}

	ids := parseIDList(msg.Content)
	if len(ids) == 0 {
		s.logger.Warn("selection output not parseable, returning empty selection",
			zap.String("raw", truncate(msg.Content, 200)))
		return Selection{Message: msg.Content}
	}

	return Selection{
		Message:  msg.Content,
		Products: s.reconcile(ids, candidates),
	}
}

// reconcile maps returned ids back to candidate records. Ids are compared as
// strings; the first candidate match wins, repeated ids collapse to one
// entry, and ids not present in the candidates are dropped. Output order is
// the model's id order — that is the ranking signal.
func (s *Selector) reconcile(ids []string, candidates []mtypes.ItemSummary) []mtypes.ItemSummary {
	seen := make(map[string]bool, len(ids))
	picked := make([]mtypes.ItemSummary, 0, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		matched := false
		for _, candidate := range candidates {
			if candidate.ItemID == id {
				picked = append(picked, candidate)
				matched = true
				break
			}
		}
		if !matched {
			// Stale or hallucinated id; dropped silently from the result.
			s.logger.Debug("selected id not in candidates", zap.String("item_id", id))
		}
	}

	return picked
}

// parseIDList decodes the model's reply into an ordered id list. The model
// is told to return a bare JSON list, but fenced or prose-wrapped output is
// tolerated; anything that still fails to decode yields nil.
func parseIDList(raw string) []string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}

	// Strip a markdown code fence if present.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Narrow to the outermost array when the list is embedded in prose.
	if !strings.HasPrefix(text, "[") {
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start < 0 || end <= start {
			return nil
		}
		text = text[start : end+1]
	}

	parsed := gjson.Parse(text)
	if !parsed.IsArray() {
		return nil
	}

	var ids []string
	for _, v := range parsed.Array() {
		if s := v.String(); s != "" {
			ids = append(ids, s)
		}
	}
	return ids
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
