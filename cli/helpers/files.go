package helpers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/afero"

	"github.com/compozy/traincfg/pkg/document"
)

const (
	readRetries    = 3
	readRetryDelay = 50 * time.Millisecond
)

// ExpandPatterns resolves arguments to file paths. Arguments containing glob
// metacharacters are matched with doublestar semantics, so "**" crosses
// directories; other arguments are returned as given. Duplicates are dropped.
func ExpandPatterns(fsys afero.Fs, args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		matches, err := glob(fsys, arg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, match := range matches {
			add(match)
		}
	}
	return files, nil
}

func glob(fsys afero.Fs, pattern string) ([]string, error) {
	root, prefix := fsys, ""
	pattern = filepath.ToSlash(filepath.Clean(pattern))
	if strings.HasPrefix(pattern, "/") {
		root, prefix = afero.NewBasePathFs(fsys, "/"), "/"
		pattern = strings.TrimPrefix(pattern, "/")
	}
	matches, err := doublestar.Glob(afero.NewIOFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	for i, match := range matches {
		matches[i] = filepath.FromSlash(prefix + match)
	}
	return matches, nil
}

// ReadDocument reads and decodes the YAML document at path.
func ReadDocument(fsys afero.Fs, path string) (*document.Map, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := document.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}

// ReadDocumentWithRetry is ReadDocument, retried briefly while the file is
// missing. Editors that save by renaming leave such a window.
func ReadDocumentWithRetry(ctx context.Context, fsys afero.Fs, path string) (*document.Map, error) {
	var doc *document.Map
	backoff := retry.WithMaxRetries(readRetries, retry.NewConstant(readRetryDelay))
	err := retry.Do(ctx, backoff, func(_ context.Context) error {
		d, err := ReadDocument(fsys, path)
		if errors.Is(err, fs.ErrNotExist) {
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
