package gamedef

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher returns the raw bytes for a document location.
type Fetcher interface {
	Fetch(ctx context.Context, input string) ([]byte, error)
}

// Preprocessor loads a main document and merges its includes into it.
type Preprocessor struct {
	Fetcher Fetcher
	Logger  *slog.Logger
}

// Preprocess reads input, then every entry of its top-level includes list in
// order, and returns the merged document.
//
// Merge policy per top-level key: sequence + sequence concatenates, mapping +
// mapping is a shallow merge where the later file wins, anything else is
// replaced by the later value.
func (p *Preprocessor) Preprocess(ctx context.Context, input string) (*Document, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	merged := map[string]any{}
	logger.Debug("reading main file", "input", displayName(input))
	main, err := p.read(ctx, input)
	if err != nil {
		return nil, err
	}
	Merge(merged, main)

	for _, include := range New(main).Includes() {
		location := ResolveInclude(input, include)
		logger.Debug("reading included file", "include", include, "location", location)
		part, err := p.read(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("include %q: %w", include, err)
		}
		Merge(merged, part)
	}

	doc := New(merged)
	logger.Info("game definition loaded", "input", displayName(input), "sections", len(merged))
	return doc, nil
}

func (p *Preprocessor) read(ctx context.Context, input string) (map[string]any, error) {
	data, err := p.Fetcher.Fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", displayName(input), err)
	}
	return m, nil
}

// Merge folds src into dst following the include merge policy.
func Merge(dst, src map[string]any) {
	for key, incoming := range src {
		existing, ok := dst[key]
		if !ok {
			dst[key] = incoming
			continue
		}
		existingSeq, existingIsSeq := existing.([]any)
		incomingSeq, incomingIsSeq := incoming.([]any)
		if existingIsSeq && incomingIsSeq {
			joined := make([]any, 0, len(existingSeq)+len(incomingSeq))
			joined = append(joined, existingSeq...)
			dst[key] = append(joined, incomingSeq...)
			continue
		}
		existingMap, existingIsMap := existing.(map[string]any)
		incomingMap, incomingIsMap := incoming.(map[string]any)
		if existingIsMap && incomingIsMap {
			joined := make(map[string]any, len(existingMap)+len(incomingMap))
			for k, v := range existingMap {
				joined[k] = v
			}
			for k, v := range incomingMap {
				joined[k] = v
			}
			dst[key] = joined
			continue
		}
		dst[key] = incoming
	}
}

// ResolveInclude resolves an include location against the location of the
// document that lists it. URLs resolve as URL references; relative file
// paths resolve against the including file's directory when that file exists
// there. Everything else is returned unchanged.
func ResolveInclude(base, include string) string {
	if isURL(include) || filepath.IsAbs(include) {
		return include
	}
	if isURL(base) {
		b, err := url.Parse(base)
		if err != nil {
			return include
		}
		ref, err := url.Parse(include)
		if err != nil {
			return include
		}
		return b.ResolveReference(ref).String()
	}
	if fileExists(base) {
		candidate := filepath.Join(filepath.Dir(base), include)
		if fileExists(candidate) {
			return candidate
		}
	}
	return include
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// displayName keeps inline documents out of log lines.
func displayName(input string) string {
	if strings.ContainsAny(input, "\n{") {
		return "<inline>"
	}
	return input
}
