package enrichment

import (
	"context"
	"errors"
)

// ErrOracleUnavailable signals that the enrichment service is not configured
// or not reachable. It is an expected condition: callers fall back to
// placeholder content and never surface it as a failure.
var ErrOracleUnavailable = errors.New("enrichment oracle unavailable")

// WordRequest asks the oracle to enrich a single word. SentenceContext, when
// present, biases the response toward the word's actual usage rather than a
// generic dictionary sense.
type WordRequest struct {
	Word            string
	Language        string
	NativeLanguage  string
	SentenceContext string
}

// WordEnrichment is the oracle's structured answer for one word. All fields
// are best-effort; empty values are normal and never overwrite stored data.
type WordEnrichment struct {
	Translation   string   `json:"translation"`
	Example       string   `json:"example"`
	ExampleNative string   `json:"example_native"`
	Lemma         string   `json:"lemma"`
	PartOfSpeech  string   `json:"part_of_speech"`
	IPA           string   `json:"ipa"`
	Gender        string   `json:"gender"`
	Plural        string   `json:"plural"`
	Conjugation   string   `json:"conjugation"`
	Comparison    string   `json:"comparison"`
	Synonyms      []string `json:"synonyms"`
	Collocations  []string `json:"collocations"`
	CEFRLevel     string   `json:"cefr_level"`
	FrequencyRank int      `json:"frequency_rank"`
}

// Oracle is the external AI service supplying linguistic metadata.
// Implementations have best-effort, retry-free semantics.
type Oracle interface {
	// EnrichWord returns metadata for a single word
	EnrichWord(ctx context.Context, req WordRequest) (*WordEnrichment, error)

	// EnrichBatch returns metadata for many words at once, keyed by word.
	// Words missing from the result simply were not answered.
	EnrichBatch(ctx context.Context, reqs []WordRequest) (map[string]*WordEnrichment, error)

	// ClassifyPartOfSpeech is the forced fallback when an enrichment
	// response carries a part of speech outside the closed enum
	ClassifyPartOfSpeech(ctx context.Context, word, language string) (string, error)
}
