package enrichment

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"lingotrack/internal/audio"
	"lingotrack/internal/logging"
	"lingotrack/internal/models"
	"lingotrack/internal/repository"
	"lingotrack/internal/wordid"
)

// Enricher fills the content store from the oracle. Oracle failures are
// absorbed here: callers always get a usable (if near-empty) entry back.
type Enricher struct {
	oracle    Oracle // nil when no credentials are configured
	content   *repository.ContentRepository
	tts       *audio.Service // nil disables audio generation
	log       *logging.Logger
	batchSize int
	workers   int
}

// NewEnricher creates an enricher. A nil oracle is a normal configuration
// and puts the enricher in placeholder mode.
func NewEnricher(oracle Oracle, content *repository.ContentRepository, tts *audio.Service, log *logging.Logger, batchSize, workers int) *Enricher {
	if batchSize <= 0 {
		batchSize = 10
	}
	if workers <= 0 {
		workers = 2
	}
	return &Enricher{
		oracle:    oracle,
		content:   content,
		tts:       tts,
		log:       log,
		batchSize: batchSize,
		workers:   workers,
	}
}

// EnrichAndStore enriches one word and upserts the result. The stored entry
// is returned; when the oracle is down a placeholder entry is stored instead
// and no error is reported.
func (e *Enricher) EnrichAndStore(ctx context.Context, word, language, nativeLanguage, sentenceContext string) (*models.WordContent, error) {
	hash := wordid.Compute(word, language, nativeLanguage)

	var result *WordEnrichment
	if e.oracle == nil {
		e.log.Warn("enrichment oracle not configured, storing placeholder", "word", word)
	} else {
		var err error
		result, err = e.oracle.EnrichWord(ctx, WordRequest{
			Word:            word,
			Language:        language,
			NativeLanguage:  nativeLanguage,
			SentenceContext: sentenceContext,
		})
		if err != nil {
			e.log.Warn("enrichment failed, storing placeholder", "word", word, "error", err)
			result = nil
		}
	}

	entry := e.buildEntry(ctx, word, language, nativeLanguage, result)
	if err := e.content.Upsert(entry); err != nil {
		return nil, err
	}

	return e.content.Get(hash)
}

// EnrichBatch enriches many words with grouped oracle calls on a small
// bounded worker pool. Words whose stored entry is already complete are
// skipped. Per-word failures are logged, not returned; the result maps every
// requested word to its stored entry.
func (e *Enricher) EnrichBatch(ctx context.Context, words []string, language, nativeLanguage string, contexts map[string]string) (map[string]*models.WordContent, error) {
	if err := e.content.EnsureExists(words, language, nativeLanguage); err != nil {
		return nil, err
	}

	hashes := wordid.ComputeAll(words, language, nativeLanguage)
	existing, err := e.content.GetByHashes(hashes)
	if err != nil {
		return nil, err
	}

	var pending []string
	for i, word := range words {
		if entry, ok := existing[hashes[i]]; ok && entry.Complete() {
			continue
		}
		pending = append(pending, word)
	}

	if len(pending) > 0 && e.oracle != nil {
		var mu sync.Mutex
		answers := make(map[string]*WordEnrichment)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)

		for start := 0; start < len(pending); start += e.batchSize {
			end := start + e.batchSize
			if end > len(pending) {
				end = len(pending)
			}
			chunk := pending[start:end]

			g.Go(func() error {
				reqs := make([]WordRequest, len(chunk))
				for i, word := range chunk {
					reqs[i] = WordRequest{
						Word:            word,
						Language:        language,
						NativeLanguage:  nativeLanguage,
						SentenceContext: contexts[word],
					}
				}

				batch, err := e.oracle.EnrichBatch(gctx, reqs)
				if err != nil {
					e.log.Warn("batch enrichment chunk failed", "words", len(chunk), "error", err)
					return nil // best effort, remaining chunks continue
				}

				mu.Lock()
				for word, enriched := range batch {
					answers[word] = enriched
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for _, word := range pending {
			entry := e.buildEntry(ctx, word, language, nativeLanguage, answers[word])
			if err := e.content.Upsert(entry); err != nil {
				e.log.Warn("failed to store enrichment", "word", word, "error", err)
			}
		}
	} else if len(pending) > 0 {
		e.log.Warn("enrichment oracle not configured, storing placeholders", "words", len(pending))
		for _, word := range pending {
			entry := e.buildEntry(ctx, word, language, nativeLanguage, nil)
			if err := e.content.Upsert(entry); err != nil {
				e.log.Warn("failed to store placeholder", "word", word, "error", err)
			}
		}
	}

	stored, err := e.content.GetByHashes(hashes)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*models.WordContent, len(words))
	for i, word := range words {
		if entry, ok := stored[hashes[i]]; ok {
			result[word] = entry
		}
	}
	return result, nil
}

// buildEntry normalizes an oracle answer into a content entry. A nil answer
// produces the placeholder: the word itself as lemma and IPA, everything
// else empty.
func (e *Enricher) buildEntry(ctx context.Context, word, language, nativeLanguage string, enriched *WordEnrichment) *models.WordContent {
	entry := &models.WordContent{
		WordHash:   wordid.Compute(word, language, nativeLanguage),
		Word:       word,
		Language:   language,
		NativeLang: nativeLanguage,
		Lemma:      word,
		IPA:        word,
		Gender:     string(models.GenderNone),
	}

	if enriched == nil {
		return entry
	}

	entry.Translation = enriched.Translation
	entry.Example = enriched.Example
	entry.ExampleNative = enriched.ExampleNative
	if enriched.Lemma != "" {
		entry.Lemma = enriched.Lemma
	}
	entry.PartOfSpeech = string(e.normalizePOS(ctx, word, language, enriched.PartOfSpeech))
	if enriched.IPA != "" {
		entry.IPA = enriched.IPA
	}
	entry.Gender = string(models.ParseGender(enriched.Gender))
	entry.Plural = enriched.Plural
	entry.Conjugation = enriched.Conjugation
	entry.Comparison = enriched.Comparison
	entry.Synonyms = strings.Join(enriched.Synonyms, ", ")
	entry.Collocations = strings.Join(enriched.Collocations, ", ")
	entry.CEFRLevel = enriched.CEFRLevel
	entry.FrequencyRank = enriched.FrequencyRank

	if e.tts != nil {
		if filename, err := e.tts.GenerateWordAudio(word, language); err != nil {
			e.log.Warn("audio generation failed", "word", word, "error", err)
		} else {
			entry.AudioFile = filename
		}
	}

	return entry
}

// normalizePOS coerces the oracle's part of speech into the closed enum,
// with one forced reclassification call when the first answer is invalid
func (e *Enricher) normalizePOS(ctx context.Context, word, language, raw string) models.PartOfSpeech {
	if raw == "" {
		return ""
	}
	if pos, ok := models.ParsePartOfSpeech(raw); ok {
		return pos
	}

	if e.oracle != nil {
		reclassified, err := e.oracle.ClassifyPartOfSpeech(ctx, word, language)
		if err == nil {
			if pos, ok := models.ParsePartOfSpeech(reclassified); ok {
				return pos
			}
		} else if !errors.Is(err, ErrOracleUnavailable) {
			e.log.Warn("part-of-speech reclassification failed", "word", word, "error", err)
		}
	}

	e.log.Warn("unrecognized part of speech dropped", "word", word, "value", raw)
	return ""
}
