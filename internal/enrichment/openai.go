package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient implements Oracle against the OpenAI chat completions API
type OpenAIClient struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates a new client. The timeout bounds every call; on
// expiry the caller treats the oracle as unavailable.
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		apiURL:     defaultAPIURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Message represents a message in the chat conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the chat completions API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the chat completions API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const enrichmentSystemPrompt = "You are a lexicographer's assistant for language learners. " +
	"You answer with strict JSON only, no prose and no markdown fences."

// chat sends one request and returns the raw completion text
func (c *OpenAIClient) chat(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: enrichmentSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrOracleUnavailable, response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices returned", ErrOracleUnavailable)
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// EnrichWord asks for metadata for a single word
func (c *OpenAIClient) EnrichWord(ctx context.Context, req WordRequest) (*WordEnrichment, error) {
	prompt := singleWordPrompt(req)

	content, err := c.chat(ctx, prompt, 500, 0.3)
	if err != nil {
		return nil, err
	}

	var enrichment WordEnrichment
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &enrichment); err != nil {
		return nil, fmt.Errorf("failed to parse enrichment response: %w", err)
	}
	return &enrichment, nil
}

// EnrichBatch asks for metadata for many words in one call, keyed by word
func (c *OpenAIClient) EnrichBatch(ctx context.Context, reqs []WordRequest) (map[string]*WordEnrichment, error) {
	if len(reqs) == 0 {
		return map[string]*WordEnrichment{}, nil
	}

	prompt := batchPrompt(reqs)

	content, err := c.chat(ctx, prompt, 500*len(reqs), 0.3)
	if err != nil {
		return nil, err
	}

	var result map[string]*WordEnrichment
	if err := json.Unmarshal([]byte(stripJSONFences(content)), &result); err != nil {
		return nil, fmt.Errorf("failed to parse batch enrichment response: %w", err)
	}
	return result, nil
}

// ClassifyPartOfSpeech asks for just a word-class tag
func (c *OpenAIClient) ClassifyPartOfSpeech(ctx context.Context, word, language string) (string, error) {
	prompt := fmt.Sprintf(
		"Classify the %s word '%s'. Answer with exactly one of: "+
			"NOUN, VERB, ADJ, ADV, PRON, DET, PREP, CONJ, NUM, PART, INTJ. "+
			"Answer with the tag only.",
		language, word,
	)

	content, err := c.chat(ctx, prompt, 10, 0.0)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func singleWordPrompt(req WordRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Describe the %s word '%s' for a learner whose native language is %s.\n",
		req.Language, req.Word, req.NativeLanguage)
	if req.SentenceContext != "" {
		fmt.Fprintf(&b, "The word appears in this sentence, prefer its sense here: %q\n", req.SentenceContext)
	}
	b.WriteString("Return a JSON object with these keys: translation, example, example_native, " +
		"lemma, part_of_speech (one of NOUN, VERB, ADJ, ADV, PRON, DET, PREP, CONJ, NUM, PART, INTJ), " +
		"ipa, gender (one of masc, fem, neut, common, none), plural, conjugation, comparison, " +
		"synonyms (array), collocations (array), cefr_level (A1-C2), frequency_rank (integer). " +
		"Use empty strings for anything that does not apply.")
	return b.String()
}

func batchPrompt(reqs []WordRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Describe the following %s words for a learner whose native language is %s.\n",
		reqs[0].Language, reqs[0].NativeLanguage)
	for _, req := range reqs {
		if req.SentenceContext != "" {
			fmt.Fprintf(&b, "- %s (appears in: %q)\n", req.Word, req.SentenceContext)
		} else {
			fmt.Fprintf(&b, "- %s\n", req.Word)
		}
	}
	b.WriteString("Return a single JSON object keyed by the exact word as listed. " +
		"Each value is a JSON object with these keys: translation, example, example_native, " +
		"lemma, part_of_speech (one of NOUN, VERB, ADJ, ADV, PRON, DET, PREP, CONJ, NUM, PART, INTJ), " +
		"ipa, gender (one of masc, fem, neut, common, none), plural, conjugation, comparison, " +
		"synonyms (array), collocations (array), cefr_level (A1-C2), frequency_rank (integer). " +
		"Use empty strings for anything that does not apply.")
	return b.String()
}

// stripJSONFences removes markdown code fences some models wrap around JSON
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
