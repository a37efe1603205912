package ingest

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Document is one raw unit produced by a loader: a single page of a source.
type Document struct {
	Source string // file path or URL
	Page   int
	Text   string
}

// Loader turns a source reference into raw document units. A loader
// failure fails the whole ingestion call it is part of.
type Loader interface {
	Load(ctx context.Context) ([]Document, error)
}

// DirectoryLoader loads every regular file under a directory, one document
// per page. PDF-extracted text uses form feeds as page breaks; everything
// else is a single page 0.
type DirectoryLoader struct {
	Dir string
}

func (l DirectoryLoader) Load(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		for page, text := range splitPages(string(content)) {
			docs = append(docs, Document{Source: path, Page: page, Text: text})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading directory %s: %w", l.Dir, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents found under %s", l.Dir)
	}
	return docs, nil
}

// splitPages breaks extracted text on form feeds. Page numbers follow
// emission order so re-loading the same file reproduces them.
func splitPages(content string) []string {
	return strings.Split(content, "\f")
}

// WebLoader fetches a single web page as a one-page document whose source
// is the URL itself.
type WebLoader struct {
	URL    string
	Client *http.Client
}

var tagPattern = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)

func (l WebLoader) Load(ctx context.Context) ([]Document, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", l.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", l.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", l.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", l.URL, err)
	}

	text := strings.TrimSpace(tagPattern.ReplaceAllString(string(body), " "))
	if text == "" {
		return nil, fmt.Errorf("no text content at %s", l.URL)
	}

	return []Document{{Source: l.URL, Page: 0, Text: text}}, nil
}
