// Package multitemp manages a dynamically growing collection of temporary
// files keyed by caller-chosen identifiers.
//
// A backing file is materialized lazily on the first use of a key, opened
// for append-mode writing and protected by an OS-level advisory exclusive
// lock. An optional initializer runs exactly once per key when its file is
// created, with the handle already locked. Handles closed by CloseAll are
// transparently reopened in append mode on the next use of the key.
//
// Cleanup is explicit: callers must call Close, which releases every handle
// and removes the backing files unless Options.KeepFiles is set. There is no
// implicit process-exit cleanup.
package multitemp

import (
	"context"
	stderrors "errors"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/robrwo/multitemp/internal/oslock"
	"github.com/robrwo/multitemp/internal/tempalloc"
	"github.com/robrwo/multitemp/logging"
)

var log = logging.Module("multitemp")

// ErrClosed is returned when a manager is used after Close.
var ErrClosed = errors.New("manager already closed")

// Manager owns a set of keyed temporary files and their write handles.
//
// A single mutex guards both key maps for the whole
// resolve-or-create-or-reopen sequence, so a Manager may be shared between
// goroutines of one process. The per-file advisory lock excludes other
// processes only.
type Manager struct {
	opts Options
	tmpl *tempalloc.Template

	mu      sync.Mutex
	files   map[string]*tempalloc.File
	handles map[string]*os.File
	closed  bool
}

// New returns a Manager with the given options.
func New(opts Options) (*Manager, error) {
	m := &Manager{
		opts:    opts,
		files:   map[string]*tempalloc.File{},
		handles: map[string]*os.File{},
	}

	if opts.Template != "" {
		t, err := tempalloc.Parse(opts.Template)
		if err != nil {
			return nil, errors.Wrap(err, "invalid options")
		}

		m.tmpl = &t
	}

	return m, nil
}

// Path returns the backing file path for the given key, materializing the
// file on first use. For a key already materialized the stored path is
// returned unchanged. init overrides the manager-level initializer for this
// key; pass nil to use Options.Initialize.
func (m *Manager) Path(ctx context.Context, key string, init InitFunc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.materializeLocked(ctx, key, init)
	if err != nil {
		return "", err
	}

	return f.Path(), nil
}

// Writer returns an open, exclusively-locked, append-mode write handle for
// the given key, reusing the already-open handle when it is still live.
// A handle invalidated externally is silently replaced by a fresh append-mode
// handle without re-running the initializer.
func (m *Manager) Writer(ctx context.Context, key string, init InitFunc) (*os.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	if w, ok := m.handles[key]; ok {
		if handleAlive(w) {
			return w, nil
		}

		// the handle was closed or invalidated behind our back, reopen
		// below; initializer-written preambles are never repeated
		log(ctx).Debugw("stale handle", "key", key)
		delete(m.handles, key)
	}

	if f, ok := m.files[key]; ok {
		return m.openLocked(ctx, key, f.Path())
	}

	if _, err := m.materializeLocked(ctx, key, init); err != nil {
		return nil, err
	}

	return m.handles[key], nil
}

// Paths returns the backing file paths of all keys materialized so far.
func (m *Manager) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.files))
	for _, f := range m.files {
		paths = append(paths, f.Path())
	}

	sort.Strings(paths)

	return paths
}

// Keys returns all keys materialized so far.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// CloseAll closes every open write handle. Backing files remain on disk and
// their paths remain known to the manager; a later Writer call for the same
// key transparently reopens in append mode. Errors closing already-invalid
// handles are absorbed so every handle gets a close attempt. Calling
// CloseAll with no open handles is a no-op.
func (m *Manager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeAllLocked(ctx)
}

// Close releases all write handles and, unless Options.KeepFiles was set,
// removes the backing files. Close is idempotent; any other use of the
// manager afterwards fails with ErrClosed. Teardown is best-effort: every
// handle and every file gets an attempt even after earlier failures.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	m.closeAllLocked(ctx)

	var result error

	for key, f := range m.files {
		if err := f.Release(); err != nil {
			result = stderrors.Join(result, errors.Wrapf(err, "cannot release backing file for key %q", key))
		}
	}

	return result
}

// materializeLocked returns the backing file for key, allocating it, opening
// its locked handle and running the initializer on first use.
func (m *Manager) materializeLocked(ctx context.Context, key string, init InitFunc) (*tempalloc.File, error) {
	if m.closed {
		return nil, ErrClosed
	}

	if f, ok := m.files[key]; ok {
		return f, nil
	}

	f, err := m.allocate(key)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot allocate backing file for key %q", key)
	}

	m.files[key] = f

	log(ctx).Debugw("materialized", "key", key, "path", f.Path())

	w, err := m.openLocked(ctx, key, f.Path())
	if err != nil {
		return nil, err
	}

	if init == nil {
		init = m.opts.Initialize
	}

	if init != nil {
		if err := init(ctx, key, f.Path(), w); err != nil {
			return nil, errors.Wrapf(err, "initializer failed for key %q", key)
		}
	}

	return f, nil
}

// openLocked opens path for appending and then acquires the exclusive lock
// as a distinct step on the resulting handle, so that releasing the lock
// always follows the handle lifetime.
func (m *Manager) openLocked(ctx context.Context, key, path string) (*os.File, error) {
	w, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open backing file for key %q", key)
	}

	if err := oslock.Exclusive(w); err != nil {
		w.Close() //nolint:errcheck

		return nil, errors.Wrapf(err, "cannot lock backing file for key %q", key)
	}

	m.handles[key] = w

	return w, nil
}

func (m *Manager) closeAllLocked(ctx context.Context) {
	for key, w := range m.handles {
		if err := w.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			log(ctx).Debugw("error closing handle", "key", key, "error", err)
		}

		delete(m.handles, key)
	}
}

// allocate creates the backing file for key. The placeholder run was located
// in the raw template at construction; the marker is substituted into the
// literal parts only, so 'X' runs contributed by the key stay literal.
func (m *Manager) allocate(key string) (*tempalloc.File, error) {
	removeOnRelease := !m.opts.KeepFiles

	if m.tmpl == nil {
		return tempalloc.Create("", m.opts.Suffix, m.opts.Dir, removeOnRelease)
	}

	t := tempalloc.Template{
		Prefix:  strings.ReplaceAll(m.tmpl.Prefix, KeyMarker, key),
		FillLen: m.tmpl.FillLen,
		Rest:    strings.ReplaceAll(m.tmpl.Rest, KeyMarker, key),
	}

	return t.Create(m.opts.Suffix, m.opts.Dir, removeOnRelease)
}

// handleAlive reports whether w still refers to an open OS-level handle,
// not merely whether an entry for it exists.
func handleAlive(w *os.File) bool {
	_, err := w.Stat()

	return err == nil
}
