package draft

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const DefaultDebounce = 300 * time.Millisecond

// Autosaver copies a markdown file into a draft every time the file changes.
// A leading "# " heading becomes the draft title and the rest its content;
// the draft's other values are kept.
type Autosaver struct {
	store    Store
	key      string
	path     string
	Debounce time.Duration
	// OnSave, when set, is called after each save.
	OnSave func(Record)
	log    *zap.Logger
}

func NewAutosaver(store Store, key, path string, logger *zap.Logger) (*Autosaver, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{
		store:    store,
		key:      key,
		path:     abs,
		Debounce: DefaultDebounce,
		log:      logger,
	}, nil
}

// Run saves the file once, then again after every burst of writes, until ctx
// is cancelled. The parent directory is watched so editors that replace the
// file on save are followed.
func (a *Autosaver) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(a.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(a.path), err)
	}

	last, err := a.save(ctx, "")
	if err != nil {
		return err
	}

	timer := time.NewTimer(a.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != a.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(a.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Warn("watch error", zap.String("path", a.path), zap.Error(err))

		case <-timer.C:
			content, err := a.save(ctx, last)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return err
			}
			last = content
		}
	}
}

// save stores the file unless its content equals last, and returns the
// content it read.
func (a *Autosaver) save(ctx context.Context, last string) (string, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return last, fmt.Errorf("failed to read %s: %w", a.path, err)
	}
	content := string(data)
	if content == last {
		return last, nil
	}

	values := Values{Categories: []int64{}}
	rec, err := a.store.Get(ctx, a.key)
	switch {
	case err == nil:
		values = rec.Values
	case !errors.Is(err, ErrNotFound):
		return last, err
	}

	title, body := SplitMarkdown(content)
	if title != "" {
		values.Title = title
	}
	values.Content = body

	rec, err = a.store.Save(ctx, a.key, values)
	if err != nil {
		return last, err
	}
	a.log.Debug("draft autosaved", zap.String("key", a.key), zap.Int("bytes", len(data)))
	if a.OnSave != nil {
		a.OnSave(rec)
	}
	return content, nil
}

// SplitMarkdown separates a leading "# " heading from the rest of a document.
func SplitMarkdown(doc string) (title, body string) {
	trimmed := strings.TrimLeft(doc, "\r\n")
	first, rest, _ := strings.Cut(trimmed, "\n")
	heading, ok := strings.CutPrefix(strings.TrimRight(first, "\r"), "# ")
	if !ok {
		return "", doc
	}
	return strings.TrimSpace(heading), strings.TrimLeft(rest, "\r\n")
}
