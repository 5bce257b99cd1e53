// Package filewatch feeds configuration files into the watchable graph: a
// File decodes a YAML or JSON document into a typed field and keeps it in
// sync with the file on disk.
package filewatch

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"github.com/juju/errors"
	"gopkg.in/yaml.v3"

	"github.com/coregx/watchables"
)

// Decoder unmarshals a document into out.
type Decoder func(data []byte, out any) error

// YAML decodes documents with gopkg.in/yaml.v3.
func YAML(data []byte, out any) error {
	return yaml.Unmarshal(data, out)
}

// JSON decodes documents with github.com/goccy/go-json.
func JSON(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

// debounceDelay coalesces the bursts of filesystem events editors produce
// for a single save.
const debounceDelay = 50 * time.Millisecond

// Options configures a File.
type Options struct {
	// Decoder parses the file contents. Defaults to YAML.
	Decoder Decoder

	// Deliver, when set, receives every reload as a closure instead of the
	// File committing it on its debounce timer's goroutine. Hand the closure to
	// whatever goroutine owns the graph; this keeps the single-mutator rule
	// intact when other mutations are in flight.
	Deliver func(apply func())
}

// File is a watchable view of a decoded document on disk. The value updates
// whenever the file is rewritten; decode or read failures keep the last good
// value and surface on the Err watchable instead.
//
// Example:
//
//	cfg, err := filewatch.Watch[Config]("app.yaml", filewatch.Options{})
//	if err != nil {
//	    return err
//	}
//	defer cfg.Close()
//	limits := watchables.Map(cfg.Value(), func(c Config) int { return c.MaxConns })
type File[T any] struct {
	path    string
	decode  Decoder
	deliver func(apply func())

	field   *watchables.Field[T]
	lastErr *watchables.Field[error]

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch loads path once and starts tracking it. The initial load must
// succeed; later failures are reported through Err.
func Watch[T any](path string, opts Options) (*File[T], error) {
	decode := opts.Decoder
	if decode == nil {
		decode = YAML
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Annotatef(err, "resolving %q", path)
	}

	f := &File[T]{
		path:    abs,
		decode:  decode,
		deliver: opts.Deliver,
		lastErr: watchables.NewField[error](nil),
		done:    make(chan struct{}),
	}

	initial, err := f.load()
	if err != nil {
		return nil, err
	}
	f.field = watchables.NewField(initial)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Annotatef(err, "watching %q", abs)
	}
	// Watch the directory: editors replace files rather than write in place,
	// and a watch on the old inode would go stale.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, errors.Annotatef(err, "watching %q", filepath.Dir(abs))
	}
	f.watcher = watcher

	go f.run()
	return f, nil
}

// Value returns the decoded document as a watchable.
func (f *File[T]) Value() watchables.Watchable[T] {
	return f.field
}

// Get returns the current decoded document.
func (f *File[T]) Get() T {
	return f.field.Get()
}

// Err exposes the most recent reload failure, or nil after a successful
// reload. It updates through the same delivery path as the value.
func (f *File[T]) Err() watchables.Watchable[error] {
	return f.lastErr
}

// Reload re-reads the file immediately on the calling goroutine.
func (f *File[T]) Reload() error {
	v, err := f.load()
	if err != nil {
		f.lastErr.Set(err).Commit()
		return err
	}
	watchables.Chain(f.field.Set(v), f.lastErr.Set(nil)).Commit()
	return nil
}

// Close stops watching. The field keeps its last value.
func (f *File[T]) Close() error {
	select {
	case <-f.done:
		return nil
	default:
	}
	close(f.done)
	return f.watcher.Close()
}

func (f *File[T]) load() (T, error) {
	var v T
	data, err := os.ReadFile(f.path)
	if err != nil {
		return v, errors.Annotatef(err, "reading %q", f.path)
	}
	if err := f.decode(data, &v); err != nil {
		return v, errors.Annotatef(err, "decoding %q", f.path)
	}
	return v, nil
}

// run drains watcher events, debouncing bursts into single reloads.
func (f *File[T]) run() {
	var debounce *time.Timer
	for {
		select {
		case <-f.done:
			if debounce != nil {
				debounce.Stop()
			}
			return
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Name != f.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, f.reloadEvent)
		case _, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (f *File[T]) reloadEvent() {
	select {
	case <-f.done:
		return
	default:
	}
	if f.deliver != nil {
		f.deliver(func() { _ = f.Reload() })
		return
	}
	_ = f.Reload()
}
