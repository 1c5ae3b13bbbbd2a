package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service provides text-to-speech synthesis for words and sentences
type Service struct {
	audioDir string
}

const ttsRequestTimeout = 10 * time.Second

// NewService creates a new TTS service writing MP3 files into audioDir
func NewService(audioDir string) *Service {
	return &Service{
		audioDir: audioDir,
	}
}

// GenerateWordAudio converts a word to speech in the given language and
// saves it as MP3. Returns the filename (not full path) on success; the
// filename doubles as a cache key, so regenerating an existing word is free.
func (s *Service) GenerateWordAudio(word, language string) (string, error) {
	sanitized := strings.ToLower(strings.TrimSpace(word))
	sanitized = strings.ReplaceAll(sanitized, " ", "_")

	filename := fmt.Sprintf("word_%s_%s.mp3", language, sanitized)
	path := filepath.Join(s.audioDir, filename)

	if _, err := os.Stat(path); err == nil {
		return filename, nil
	}

	if err := s.generateUsingGoogleTTS(word, language, path); err != nil {
		return "", fmt.Errorf("failed to generate audio: %w", err)
	}

	return filename, nil
}

// GenerateSentenceAudio converts a sentence to speech. Sentence text is not
// a usable filename key, so the file gets a random name; callers keep the
// returned reference.
func (s *Service) GenerateSentenceAudio(text, language string) (string, error) {
	filename := fmt.Sprintf("sentence_%s.mp3", uuid.NewString())
	path := filepath.Join(s.audioDir, filename)

	if err := s.generateUsingGoogleTTS(text, language, path); err != nil {
		return "", fmt.Errorf("failed to generate sentence audio: %w", err)
	}

	return filename, nil
}

// generateUsingGoogleTTS uses Google Translate's text-to-speech API
// This is a simple, free option that doesn't require API keys
func (s *Service) generateUsingGoogleTTS(text, language, outputPath string) error {
	if err := os.MkdirAll(s.audioDir, 0o755); err != nil {
		return fmt.Errorf("failed to create audio directory: %w", err)
	}

	baseURL := "https://translate.google.com/translate_tts"

	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", language)
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	fullURL := baseURL + "?" + params.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set user agent (required by Google)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	client := &http.Client{Timeout: ttsRequestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	return nil
}
