// Package llm turns language-model completions into mindmap content.
//
// The package exposes a small [Client] interface with three operations:
// generating a full outline for a topic, expanding one node into
// children, and suggesting topics for a query. The production
// implementation talks to an OpenAI-compatible chat completions API and
// layers caching, bounded retries, and deterministic fallbacks around
// it, so callers upstream never see a transport error for generation
// traffic. A cancelled context is the one exception: cancellation
// propagates, everything else degrades to fallback content.
package llm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pengpongpang/deepbrain/pkg/cache"
	"github.com/pengpongpang/deepbrain/pkg/errors"
	"github.com/pengpongpang/deepbrain/pkg/observability"
)

// Client produces mindmap content from a language model.
type Client interface {
	// GenerateMindmap returns an outline for a topic. When the model is
	// unreachable or answers with malformed JSON, a minimal outline
	// holding only the central topic is returned instead of an error.
	GenerateMindmap(ctx context.Context, req GenerateRequest) (*Outline, error)

	// ExpandNode returns child branches for an existing node. Model
	// failures yield an empty slice, not an error.
	ExpandNode(ctx context.Context, nodeLabel string, req ExpandRequest) ([]Branch, error)

	// SuggestTopics returns topic suggestions for a free-form query.
	// Model failures yield two deterministic suggestions derived from
	// the query.
	SuggestTopics(ctx context.Context, query string) ([]Suggestion, error)
}

// Defaults for the OpenAI client.
const (
	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultTemperature = 0.7
	DefaultCacheTTL    = 24 * time.Hour
)

// Token budgets per operation.
const (
	generateMaxTokens = 2000
	expandMaxTokens   = 1000
	suggestMaxTokens  = 800

	// Suggestions run hotter than generation for variety.
	suggestTemperature = 0.8
)

// Options configures the OpenAI-backed client.
type Options struct {
	// APIKey authenticates against the provider.
	APIKey string

	// BaseURL overrides the provider endpoint, for proxies and
	// OpenAI-compatible local models. Empty means the public API.
	BaseURL string

	// Model names the chat model. Empty means DefaultModel.
	Model string

	// Temperature applies to generation and expansion. Zero means
	// DefaultTemperature.
	Temperature float32

	// HTTPClient overrides the transport, letting callers inject
	// response caching or custom timeouts. Nil means http.DefaultClient.
	HTTPClient *http.Client

	// Cache stores model results. Nil disables caching.
	Cache cache.Cache

	// Keyer scopes cache keys. Nil means the unscoped default.
	Keyer cache.Keyer

	// CacheTTL bounds cached results. Zero means DefaultCacheTTL.
	CacheTTL time.Duration
}

// OpenAI is the production [Client] implementation.
type OpenAI struct {
	api         *openai.Client
	model       string
	temperature float32
	cache       cache.Cache
	keyer       cache.Keyer
	ttl         time.Duration
}

// NewOpenAI creates a client for an OpenAI-compatible chat API.
func NewOpenAI(opts Options) *OpenAI {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	c := &OpenAI{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		cache:       opts.Cache,
		keyer:       opts.Keyer,
		ttl:         opts.CacheTTL,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature == 0 {
		c.temperature = DefaultTemperature
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.ttl == 0 {
		c.ttl = DefaultCacheTTL
	}
	return c
}

// Ensure OpenAI implements Client.
var _ Client = (*OpenAI)(nil)

// GenerateMindmap implements [Client].
func (c *OpenAI) GenerateMindmap(ctx context.Context, req GenerateRequest) (*Outline, error) {
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := c.keyer.GenerationKey(req.Topic, cache.GenerationKeyOpts{
		Description: req.Description,
		Depth:       req.Depth,
		Style:       req.Style,
		MaxChildren: req.MaxChildren,
	})
	if out, ok := cacheGet[Outline](ctx, c.cache, key, "generation"); ok {
		return out, nil
	}

	content, err := c.complete(ctx, "generate", systemGenerate, generatePrompt(req), c.temperature, generateMaxTokens)
	if err != nil {
		return c.fallbackOutline(ctx, req, err)
	}

	var outline Outline
	if err := json.Unmarshal([]byte(content), &outline); err != nil {
		return c.fallbackOutline(ctx, req, err)
	}
	if outline.CentralTopic == "" {
		outline.CentralTopic = req.Topic
	}

	cacheSet(ctx, c.cache, key, &outline, c.ttl, "generation")
	return &outline, nil
}

// fallbackOutline degrades a failed generation to a root-only outline.
func (c *OpenAI) fallbackOutline(ctx context.Context, req GenerateRequest, cause error) (*Outline, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	observability.LLM().OnFallback(ctx, "generate", cause)
	return &Outline{CentralTopic: req.Topic}, nil
}

// ExpandNode implements [Client].
func (c *OpenAI) ExpandNode(ctx context.Context, nodeLabel string, req ExpandRequest) ([]Branch, error) {
	if err := errors.ValidateNodeLabel(nodeLabel); err != nil {
		return nil, err
	}
	req.SetDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := c.keyer.ExpansionKey(nodeLabel, cache.ExpansionKeyOpts{
		Topic:       req.ExpansionTopic,
		Context:     req.Context,
		MaxChildren: req.MaxChildren,
	})
	if out, ok := cacheGet[[]Branch](ctx, c.cache, key, "expansion"); ok {
		return *out, nil
	}

	content, err := c.complete(ctx, "expand", systemExpand, expandPrompt(nodeLabel, req), c.temperature, expandMaxTokens)
	if err != nil {
		return c.fallbackBranches(ctx, err)
	}

	var payload struct {
		Children []Branch `json:"children"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return c.fallbackBranches(ctx, err)
	}

	children := payload.Children
	if len(children) > req.MaxChildren {
		children = children[:req.MaxChildren]
	}
	if children == nil {
		children = []Branch{}
	}

	cacheSet(ctx, c.cache, key, &children, c.ttl, "expansion")
	return children, nil
}

// fallbackBranches degrades a failed expansion to no children.
func (c *OpenAI) fallbackBranches(ctx context.Context, cause error) ([]Branch, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	observability.LLM().OnFallback(ctx, "expand", cause)
	return []Branch{}, nil
}

// SuggestTopics implements [Client].
func (c *OpenAI) SuggestTopics(ctx context.Context, query string) ([]Suggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "query cannot be empty")
	}

	key := c.keyer.SuggestKey(query)
	if out, ok := cacheGet[[]Suggestion](ctx, c.cache, key, "suggest"); ok {
		return *out, nil
	}

	content, err := c.complete(ctx, "suggest", systemSuggest, suggestPrompt(query), suggestTemperature, suggestMaxTokens)
	if err != nil {
		return c.fallbackSuggestions(ctx, query, err)
	}

	var payload struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil || len(payload.Suggestions) == 0 {
		return c.fallbackSuggestions(ctx, query, err)
	}

	cacheSet(ctx, c.cache, key, &payload.Suggestions, c.ttl, "suggest")
	return payload.Suggestions, nil
}

// fallbackSuggestions degrades a failed suggestion call to two
// deterministic entries derived from the query.
func (c *OpenAI) fallbackSuggestions(ctx context.Context, query string, cause error) ([]Suggestion, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	observability.LLM().OnFallback(ctx, "suggest", cause)
	return []Suggestion{
		{
			Title:       query + " - Core Concepts",
			Description: "Explore the fundamental concepts of " + query,
			Category:    "Foundations",
		},
		{
			Title:       query + " - Applications",
			Description: "Practical applications and examples of " + query,
			Category:    "In Practice",
		},
	}, nil
}

// complete runs one chat completion with retries and records it through
// the observability hooks.
func (c *OpenAI) complete(ctx context.Context, op, system, prompt string, temperature float32, maxTokens int) (string, error) {
	hooks := observability.LLM()
	hooks.OnGenerationStart(ctx, op, c.model)
	start := time.Now()

	var resp openai.ChatCompletionResponse
	err := cache.RetryWithBackoff(ctx, func() error {
		var callErr error
		resp, callErr = c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.model,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		return classify(callErr)
	})

	hooks.OnGenerationComplete(ctx, op, c.model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, time.Since(start), err)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// classify marks transient provider failures as retryable. Rate limits
// and 5xx answers retry; auth and validation failures do not, and
// context cancellation always passes through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return cache.Retryable(err)
		}
		return err
	}
	return cache.Retryable(err)
}

// cacheGet loads and decodes a cached value, recording hit or miss.
func cacheGet[T any](ctx context.Context, c cache.Cache, key, keyType string) (*T, bool) {
	data, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return &v, true
}

// cacheSet stores a value best-effort. Encoding or storage failures are
// dropped: a cache problem must never fail the request.
func cacheSet[T any](ctx context.Context, c cache.Cache, key string, v *T, ttl time.Duration, keyType string) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.Set(ctx, key, data, ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
}
