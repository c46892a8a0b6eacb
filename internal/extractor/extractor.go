// Package extractor turns raw file content into indexable text.
//
// Plain text extraction is always tried first. When it yields too little
// usable text the file is assumed to be a scan, an image, or a media file,
// and extraction falls back to a remote transcriber when one is
// configured. Rate-limited transcription calls are retried with a linear
// backoff before giving up.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vaultdrive/docsearch-mcp/pkg/types"
)

// FallbackThreshold is the trimmed-text length at or below which plain
// text extraction is considered to have failed.
const FallbackThreshold = 100

// Rate-limit retry: up to MaxAttempts calls, waiting RetryStep, 2×RetryStep,
// ... between them.
const (
	MaxAttempts = 3
	RetryStep   = 10 * time.Second
)

// Extractor extracts text from file content.
type Extractor interface {
	Extract(ctx context.Context, content []byte, file types.FileRecord) (string, error)
}

// Transcriber produces text from non-textual content via a remote model.
type Transcriber interface {
	Transcribe(ctx context.Context, content []byte, mimeType string) (string, error)
}

// PlainText decodes content as UTF-8, dropping invalid byte sequences.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, content []byte, _ types.FileRecord) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	return strings.ToValidUTF8(string(content), ""), nil
}

// Smart runs plain text extraction with a transcription fallback.
type Smart struct {
	plain       PlainText
	transcriber Transcriber
	sleep       func(context.Context, time.Duration) error
}

// Option configures Smart.
type Option func(*Smart)

// WithSleeper replaces the retry wait, for tests.
func WithSleeper(sleep func(context.Context, time.Duration) error) Option {
	return func(s *Smart) { s.sleep = sleep }
}

// NewSmart creates a Smart extractor. transcriber may be nil, in which
// case only plain text extraction is available.
func NewSmart(transcriber Transcriber, opts ...Option) *Smart {
	s := &Smart{
		transcriber: transcriber,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Extract returns the file's text. Content whose trimmed plain text is at
// most FallbackThreshold runes long is sent to the transcriber instead;
// without a transcriber the short text is returned as-is.
func (s *Smart) Extract(ctx context.Context, content []byte, file types.FileRecord) (string, error) {
	text, err := s.plain.Extract(ctx, content, file)
	if err != nil {
		return "", err
	}
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) > FallbackThreshold {
		return text, nil
	}
	if s.transcriber == nil {
		return trimmed, nil
	}

	transcribed, err := s.transcribe(ctx, content, MIMEType(file))
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", file.Name, err)
	}
	// A transcriber that produced even less than the plain decode did is
	// not an improvement.
	if utf8.RuneCountInString(strings.TrimSpace(transcribed)) < utf8.RuneCountInString(trimmed) {
		return trimmed, nil
	}
	return transcribed, nil
}

// transcribe retries rate-limited calls with linearly growing waits.
// Other errors fail immediately.
func (s *Smart) transcribe(ctx context.Context, content []byte, mimeType string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		text, err := s.transcriber.Transcribe(ctx, content, mimeType)
		if err == nil {
			return text, nil
		}
		if !isRateLimited(err) {
			return "", err
		}
		lastErr = err
		if attempt < MaxAttempts {
			if err := s.sleep(ctx, time.Duration(attempt)*RetryStep); err != nil {
				return "", err
			}
		}
	}
	return "", lastErr
}

func isRateLimited(err error) bool {
	return errors.Is(err, types.ErrRateLimited)
}

// MIMEType guesses a content type from the file name, falling back on the
// coarse file type classification.
func MIMEType(file types.FileRecord) string {
	if ext := filepath.Ext(file.Name); ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	switch file.Type {
	case types.FileTypeImage:
		return "image/png"
	case types.FileTypeVideo:
		return "video/mp4"
	case types.FileTypeAudio:
		return "audio/mpeg"
	case types.FileTypeDocument:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
