package rules

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/moneyflow-dev/moneyflow/internal/storage"
)

// ValidationError reports invalid rule input. It is never retried.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " must not be empty"
}

const (
	maxKeywordSuggestions = 5
	minTokenLength        = 2
	minMerchantLength     = 3
)

var tokenSeparator = regexp.MustCompile(`[,\s]+`)

// Engine owns the category rule set. It caches the rule list between
// reads and drops the cache on every write, so a created rule is visible
// to the very next SuggestCategory call.
type Engine struct {
	store storage.Storage

	mu     sync.Mutex
	rules  []storage.CategoryRule
	loaded bool
}

func NewEngine(store storage.Storage) *Engine {
	return &Engine{store: store}
}

// SuggestCategory scans the rule set in creation order and returns the
// category of the first rule whose keyword is a case-insensitive substring
// of the transaction's merchant name, or of its description when the
// merchant is absent. An empty string means no rule matched.
func (e *Engine) SuggestCategory(ctx context.Context, transaction storage.Transaction) (string, error) {
	text := transaction.Merchant()
	if text == "" {
		text = transaction.Description()
	}
	if text == "" {
		return "", nil
	}

	rules, err := e.loadRules(ctx)
	if err != nil {
		return "", err
	}

	lowered := strings.ToLower(text)
	for _, rule := range rules {
		if strings.Contains(lowered, strings.ToLower(rule.Keyword())) {
			return rule.Category(), nil
		}
	}

	return "", nil
}

func (e *Engine) CreateRule(ctx context.Context, keyword, category string) (storage.CategoryRule, error) {
	keyword = strings.TrimSpace(keyword)
	category = strings.TrimSpace(category)

	if keyword == "" {
		return nil, &ValidationError{Field: "keyword"}
	}
	if category == "" {
		return nil, &ValidationError{Field: "category"}
	}

	rule, err := e.store.CreateRule(ctx, keyword, category)
	if err != nil {
		return nil, err
	}

	e.Invalidate()

	return rule, nil
}

func (e *Engine) DeleteRule(ctx context.Context, id string) error {
	if err := e.store.DeleteRule(ctx, id); err != nil {
		return err
	}

	e.Invalidate()

	return nil
}

func (e *Engine) Rules(ctx context.Context) ([]storage.CategoryRule, error) {
	return e.loadRules(ctx)
}

// Invalidate drops the cached rule list. Callers that write rules outside
// the engine (import seeding) must invalidate before the next match.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rules = nil
	e.loaded = false
}

func (e *Engine) loadRules(ctx context.Context) ([]storage.CategoryRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return e.rules, nil
	}

	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return nil, err
	}

	e.rules = rules
	e.loaded = true

	return e.rules, nil
}

// SuggestKeywords extracts candidate rule keywords from a merchant name.
// It is a helper for the rule-creation flow and never creates a rule on
// its own.
func SuggestKeywords(merchant string) []string {
	suggestions := []string{}
	seen := map[string]bool{}

	for _, token := range tokenSeparator.Split(strings.ToLower(merchant), -1) {
		if utf8.RuneCountInString(token) < minTokenLength {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		suggestions = append(suggestions, token)
	}

	if utf8.RuneCountInString(merchant) >= minMerchantLength && !seen[merchant] {
		seen[merchant] = true
		suggestions = append(suggestions, merchant)
	}

	if len(suggestions) > maxKeywordSuggestions {
		suggestions = suggestions[:maxKeywordSuggestions]
	}

	return suggestions
}
