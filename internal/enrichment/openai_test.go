package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeCompletionServer answers every chat request with the given content
func fakeCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing or wrong Authorization header: %q", r.Header.Get("Authorization"))
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Messages) == 0 {
			t.Error("request carries no messages")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *OpenAIClient {
	client := NewOpenAIClient("test-key", "gpt-4o-mini", 5*time.Second)
	client.apiURL = server.URL
	return client
}

func TestEnrichWord(t *testing.T) {
	answer := `{"translation":"dog","example":"Der Hund bellt.","lemma":"Hund",` +
		`"part_of_speech":"NOUN","gender":"masc","plural":"Hunde","synonyms":["Köter"]}`
	server := fakeCompletionServer(t, answer)
	client := newTestClient(server)

	enriched, err := client.EnrichWord(context.Background(), WordRequest{
		Word: "Hund", Language: "de", NativeLanguage: "en",
	})
	if err != nil {
		t.Fatalf("EnrichWord failed: %v", err)
	}
	if enriched.Translation != "dog" || enriched.PartOfSpeech != "NOUN" {
		t.Errorf("EnrichWord = %+v, wrong fields", enriched)
	}
	if len(enriched.Synonyms) != 1 || enriched.Synonyms[0] != "Köter" {
		t.Errorf("Synonyms = %v", enriched.Synonyms)
	}
}

func TestEnrichWordHandlesFencedJSON(t *testing.T) {
	answer := "```json\n{\"translation\":\"cat\",\"part_of_speech\":\"NOUN\"}\n```"
	server := fakeCompletionServer(t, answer)
	client := newTestClient(server)

	enriched, err := client.EnrichWord(context.Background(), WordRequest{
		Word: "Katze", Language: "de", NativeLanguage: "en",
	})
	if err != nil {
		t.Fatalf("EnrichWord failed: %v", err)
	}
	if enriched.Translation != "cat" {
		t.Errorf("Translation = %q, want cat", enriched.Translation)
	}
}

func TestEnrichBatch(t *testing.T) {
	answer := `{"Hund":{"translation":"dog"},"Katze":{"translation":"cat"}}`
	server := fakeCompletionServer(t, answer)
	client := newTestClient(server)

	result, err := client.EnrichBatch(context.Background(), []WordRequest{
		{Word: "Hund", Language: "de", NativeLanguage: "en"},
		{Word: "Katze", Language: "de", NativeLanguage: "en"},
	})
	if err != nil {
		t.Fatalf("EnrichBatch failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("EnrichBatch returned %d entries, want 2", len(result))
	}
	if result["Hund"].Translation != "dog" || result["Katze"].Translation != "cat" {
		t.Errorf("EnrichBatch = %v, wrong translations", result)
	}
}

func TestEnrichBatchEmptyRequest(t *testing.T) {
	client := NewOpenAIClient("test-key", "gpt-4o-mini", time.Second)

	result, err := client.EnrichBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EnrichBatch(nil) failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("EnrichBatch(nil) = %v, want empty map", result)
	}
}

func TestClassifyPartOfSpeech(t *testing.T) {
	server := fakeCompletionServer(t, "VERB")
	client := newTestClient(server)

	tag, err := client.ClassifyPartOfSpeech(context.Background(), "laufen", "de")
	if err != nil {
		t.Fatalf("ClassifyPartOfSpeech failed: %v", err)
	}
	if tag != "VERB" {
		t.Errorf("ClassifyPartOfSpeech = %q, want VERB", tag)
	}
}

func TestAPIErrorIsOracleUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.EnrichWord(context.Background(), WordRequest{Word: "Hund", Language: "de"})
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("API error = %v, want ErrOracleUnavailable", err)
	}
}

func TestTransportErrorIsOracleUnavailable(t *testing.T) {
	client := NewOpenAIClient("test-key", "gpt-4o-mini", time.Second)
	client.apiURL = "http://127.0.0.1:1" // nothing listens here

	_, err := client.EnrichWord(context.Background(), WordRequest{Word: "Hund", Language: "de"})
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Errorf("transport error = %v, want ErrOracleUnavailable", err)
	}
}

func TestStripJSONFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		if got := stripJSONFences(tt.in); got != tt.want {
			t.Errorf("stripJSONFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
