package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

// FileStore reads a TOML, YAML or JSON settings file and reloads it when
// the file changes on disk.
type FileStore struct {
	observers
	path    string
	format  Format
	watcher *fsnotify.Watcher
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

func NewFileStore(path string) (*FileStore, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &FileStore{
		path:    path,
		format:  format,
		watcher: watcher,
		done:    make(chan struct{}),
	}, nil
}

func (f *FileStore) Snapshot(ctx context.Context) (model.Settings, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Settings{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, f.path, ErrNotFound)
		}
		return model.Settings{}, fmt.Errorf("%w: read %s: %v", ErrUnavailable, f.path, err)
	}
	return Decode(raw, f.format)
}

func (f *FileStore) OnSettingsChanged(h Handler) func() {
	return f.add(h)
}

// Start begins watching the settings file for changes.
func (f *FileStore) Start() error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = true
	f.mu.Unlock()

	// editors replace files, so watch the directory
	if err := f.watcher.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", f.path, err)
	}
	go f.watch()
	return nil
}

func (f *FileStore) watch() {
	filename := filepath.Base(f.path)
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			s, err := f.Snapshot(context.Background())
			if err != nil {
				log.Warn().Err(err).Str("file", f.path).Msg("settings reload failed")
				continue
			}
			log.Info().Str("file", f.path).Msg("settings file changed")
			f.notify(s)

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("settings watcher error")

		case <-f.done:
			return
		}
	}
}

func (f *FileStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return nil
	default:
	}
	f.running = false
	close(f.done)
	return f.watcher.Close()
}
