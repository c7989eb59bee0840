package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pengpongpang/deepbrain/pkg/cache"
	"github.com/pengpongpang/deepbrain/pkg/errors"
)

const outlineJSON = `{
  "central_topic": "Go Concurrency",
  "branches": [
    {"id": "branch_1", "label": "Goroutines", "description": "Lightweight threads", "level": 1, "children": [
      {"id": "branch_1_1", "label": "Scheduling", "level": 2, "children": []}
    ]},
    {"id": "branch_2", "label": "Channels", "level": 1, "children": []}
  ]
}`

// chatServer serves content as the single choice of every chat
// completion call and counts the calls it saw.
func chatServer(t *testing.T, content string) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		*calls++
		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  DefaultModel,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 34, TotalTokens: 46},
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

// brokenServer rejects every call with a provider error payload. Status
// 400 is deliberately non-retryable so fallback tests stay fast.
func brokenServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad request","type":"invalid_request_error"}}`)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func testClient(t *testing.T, url string, c cache.Cache) *OpenAI {
	t.Helper()
	return NewOpenAI(Options{APIKey: "test-key", BaseURL: url, Cache: c})
}

func TestGenerateMindmap(t *testing.T) {
	srv, _ := chatServer(t, outlineJSON)
	c := testClient(t, srv.URL, nil)

	outline, err := c.GenerateMindmap(context.Background(), GenerateRequest{Topic: "Go Concurrency"})
	if err != nil {
		t.Fatalf("GenerateMindmap() error = %v", err)
	}
	if outline.CentralTopic != "Go Concurrency" {
		t.Errorf("CentralTopic = %q, want %q", outline.CentralTopic, "Go Concurrency")
	}
	if len(outline.Branches) != 2 {
		t.Fatalf("len(Branches) = %d, want 2", len(outline.Branches))
	}
	if got := outline.Branches[0].Children[0].Label; got != "Scheduling" {
		t.Errorf("Branches[0].Children[0].Label = %q, want %q", got, "Scheduling")
	}
}

func TestGenerateMindmapRequestShape(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: `{"central_topic":"X"}`},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	if _, err := c.GenerateMindmap(context.Background(), GenerateRequest{Topic: "X"}); err != nil {
		t.Fatalf("GenerateMindmap() error = %v", err)
	}

	if got.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", got.Model, DefaultModel)
	}
	if got.MaxTokens != generateMaxTokens {
		t.Errorf("MaxTokens = %d, want %d", got.MaxTokens, generateMaxTokens)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("ResponseFormat = %+v, want json_object", got.ResponseFormat)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(got.Messages))
	}
	if got.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Errorf("Messages[0].Role = %q, want system", got.Messages[0].Role)
	}
	if !strings.Contains(got.Messages[1].Content, "X") {
		t.Errorf("user prompt does not mention the topic: %q", got.Messages[1].Content)
	}
}

func TestGenerateMindmapFillsMissingTopic(t *testing.T) {
	srv, _ := chatServer(t, `{"branches":[]}`)
	c := testClient(t, srv.URL, nil)

	outline, err := c.GenerateMindmap(context.Background(), GenerateRequest{Topic: "Fallback Topic"})
	if err != nil {
		t.Fatalf("GenerateMindmap() error = %v", err)
	}
	if outline.CentralTopic != "Fallback Topic" {
		t.Errorf("CentralTopic = %q, want request topic", outline.CentralTopic)
	}
}

func TestGenerateMindmapFallbackOnProviderError(t *testing.T) {
	srv, _ := brokenServer(t)
	c := testClient(t, srv.URL, nil)

	outline, err := c.GenerateMindmap(context.Background(), GenerateRequest{Topic: "Quantum"})
	if err != nil {
		t.Fatalf("GenerateMindmap() error = %v, want fallback", err)
	}
	if outline.CentralTopic != "Quantum" {
		t.Errorf("CentralTopic = %q, want %q", outline.CentralTopic, "Quantum")
	}
	if len(outline.Branches) != 0 {
		t.Errorf("len(Branches) = %d, want 0 in fallback", len(outline.Branches))
	}
}

func TestGenerateMindmapFallbackOnMalformedJSON(t *testing.T) {
	srv, _ := chatServer(t, "not json at all")
	c := testClient(t, srv.URL, nil)

	outline, err := c.GenerateMindmap(context.Background(), GenerateRequest{Topic: "Quantum"})
	if err != nil {
		t.Fatalf("GenerateMindmap() error = %v, want fallback", err)
	}
	if outline.CentralTopic != "Quantum" || len(outline.Branches) != 0 {
		t.Errorf("fallback outline = %+v, want root-only", outline)
	}
}

func TestGenerateMindmapCancelledContext(t *testing.T) {
	srv, _ := chatServer(t, outlineJSON)
	c := testClient(t, srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.GenerateMindmap(ctx, GenerateRequest{Topic: "Quantum"}); err == nil {
		t.Error("GenerateMindmap() with cancelled context returned nil error, want cancellation")
	}
}

func TestGenerateMindmapCaches(t *testing.T) {
	srv, calls := chatServer(t, outlineJSON)
	c := testClient(t, srv.URL, cache.NewMemoryCache())

	req := GenerateRequest{Topic: "Go Concurrency"}
	if _, err := c.GenerateMindmap(context.Background(), req); err != nil {
		t.Fatalf("first GenerateMindmap() error = %v", err)
	}
	out, err := c.GenerateMindmap(context.Background(), req)
	if err != nil {
		t.Fatalf("second GenerateMindmap() error = %v", err)
	}
	if *calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second answer from cache)", *calls)
	}
	if len(out.Branches) != 2 {
		t.Errorf("cached outline len(Branches) = %d, want 2", len(out.Branches))
	}

	if _, err := c.GenerateMindmap(context.Background(), GenerateRequest{Topic: "Another Topic"}); err != nil {
		t.Fatalf("third GenerateMindmap() error = %v", err)
	}
	if *calls != 2 {
		t.Errorf("provider calls = %d, want 2 (different topic misses)", *calls)
	}
}

func TestGenerateMindmapDoesNotCacheFallback(t *testing.T) {
	srv, calls := brokenServer(t)
	c := testClient(t, srv.URL, cache.NewMemoryCache())

	req := GenerateRequest{Topic: "Quantum"}
	for i := 0; i < 2; i++ {
		if _, err := c.GenerateMindmap(context.Background(), req); err != nil {
			t.Fatalf("GenerateMindmap() #%d error = %v", i+1, err)
		}
	}
	if *calls != 2 {
		t.Errorf("provider calls = %d, want 2 (fallbacks are never cached)", *calls)
	}
}

func TestGenerateMindmapValidation(t *testing.T) {
	srv, calls := chatServer(t, outlineJSON)
	c := testClient(t, srv.URL, nil)

	tests := []struct {
		name string
		req  GenerateRequest
	}{
		{"EmptyTopic", GenerateRequest{}},
		{"DepthTooLarge", GenerateRequest{Topic: "ok", Depth: 99}},
		{"BadStyle", GenerateRequest{Topic: "ok", Style: "florid"}},
		{"TooManyChildren", GenerateRequest{Topic: "ok", MaxChildren: 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.GenerateMindmap(context.Background(), tt.req)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("GenerateMindmap() error = %v, want INVALID_INPUT", err)
			}
		})
	}
	if *calls != 0 {
		t.Errorf("provider calls = %d, want 0 for invalid requests", *calls)
	}
}

func TestExpandNode(t *testing.T) {
	srv, _ := chatServer(t, `{"children":[
		{"label":"Mutexes","description":"Lock-based exclusion"},
		{"label":"Atomics","description":"Lock-free primitives"}
	]}`)
	c := testClient(t, srv.URL, nil)

	children, err := c.ExpandNode(context.Background(), "Synchronization", ExpandRequest{})
	if err != nil {
		t.Fatalf("ExpandNode() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(children))
	}
	if children[0].Label != "Mutexes" {
		t.Errorf("children[0].Label = %q, want %q", children[0].Label, "Mutexes")
	}
}

func TestExpandNodeCapsChildren(t *testing.T) {
	srv, _ := chatServer(t, `{"children":[{"label":"A"},{"label":"B"},{"label":"C"}]}`)
	c := testClient(t, srv.URL, nil)

	children, err := c.ExpandNode(context.Background(), "Node", ExpandRequest{MaxChildren: 2})
	if err != nil {
		t.Fatalf("ExpandNode() error = %v", err)
	}
	if len(children) != 2 {
		t.Errorf("len(children) = %d, want 2 (capped)", len(children))
	}
}

func TestExpandNodeFallback(t *testing.T) {
	srv, _ := brokenServer(t)
	c := testClient(t, srv.URL, nil)

	children, err := c.ExpandNode(context.Background(), "Node", ExpandRequest{})
	if err != nil {
		t.Fatalf("ExpandNode() error = %v, want fallback", err)
	}
	if len(children) != 0 {
		t.Errorf("len(children) = %d, want 0 in fallback", len(children))
	}
}

func TestExpandNodeValidation(t *testing.T) {
	srv, calls := chatServer(t, `{"children":[]}`)
	c := testClient(t, srv.URL, nil)

	if _, err := c.ExpandNode(context.Background(), "", ExpandRequest{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ExpandNode(empty label) error = %v, want INVALID_INPUT", err)
	}
	if *calls != 0 {
		t.Errorf("provider calls = %d, want 0", *calls)
	}
}

func TestSuggestTopics(t *testing.T) {
	srv, _ := chatServer(t, `{"suggestions":[
		{"title":"T1","description":"d1","category":"c1"},
		{"title":"T2","description":"d2","category":"c2"},
		{"title":"T3","description":"d3","category":"c3"},
		{"title":"T4","description":"d4","category":"c4"},
		{"title":"T5","description":"d5","category":"c5"}
	]}`)
	c := testClient(t, srv.URL, nil)

	got, err := c.SuggestTopics(context.Background(), "machine learning")
	if err != nil {
		t.Fatalf("SuggestTopics() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("len(suggestions) = %d, want 5", len(got))
	}
	if got[0].Title != "T1" || got[0].Category != "c1" {
		t.Errorf("suggestions[0] = %+v, want T1/c1", got[0])
	}
}

func TestSuggestTopicsFallback(t *testing.T) {
	srv, _ := brokenServer(t)
	c := testClient(t, srv.URL, nil)

	got, err := c.SuggestTopics(context.Background(), "graph theory")
	if err != nil {
		t.Fatalf("SuggestTopics() error = %v, want fallback", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(suggestions) = %d, want 2 in fallback", len(got))
	}
	if want := "graph theory - Core Concepts"; got[0].Title != want {
		t.Errorf("suggestions[0].Title = %q, want %q", got[0].Title, want)
	}
	if got[1].Category != "In Practice" {
		t.Errorf("suggestions[1].Category = %q, want %q", got[1].Category, "In Practice")
	}
}

func TestSuggestTopicsEmptyQuery(t *testing.T) {
	srv, calls := chatServer(t, `{"suggestions":[]}`)
	c := testClient(t, srv.URL, nil)

	if _, err := c.SuggestTopics(context.Background(), "   "); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("SuggestTopics(blank) error = %v, want INVALID_INPUT", err)
	}
	if *calls != 0 {
		t.Errorf("provider calls = %d, want 0", *calls)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"RateLimited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, true},
		{"ServerError", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, true},
		{"Unauthorized", &openai.APIError{HTTPStatusCode: http.StatusUnauthorized}, false},
		{"BadRequest", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, false},
		{"Network", io.ErrUnexpectedEOF, true},
		{"Cancelled", context.Canceled, false},
		{"DeadlineExceeded", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cache.IsRetryable(classify(tt.err)); got != tt.retryable {
				t.Errorf("classify() retryable = %v, want %v", got, tt.retryable)
			}
		})
	}
	if err := classify(nil); err != nil {
		t.Errorf("classify(nil) = %v, want nil", err)
	}
}
