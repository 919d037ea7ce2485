package multitemp

import (
	"context"
	"os"
)

// KeyMarker is the literal token in Options.Template that is replaced with
// the key when a backing file is materialized. Matching is literal and
// case-sensitive.
const KeyMarker = "KEY"

// InitFunc is invoked exactly once per key, immediately after the key's
// backing file has been created and its write handle locked for exclusive
// access. It may safely write headers or other preamble through w.
type InitFunc func(ctx context.Context, key, path string, w *os.File) error

// Options configures a Manager. The zero value is usable: backing files are
// created in the OS temporary directory using a default naming pattern and
// removed on Close.
type Options struct {
	// Template is the naming pattern for backing files. When set, it must
	// contain a run of at least four 'X' characters, which is replaced with
	// unique random fill. Any occurrence of KeyMarker outside that run is
	// replaced with the key being materialized; 'X' characters contributed
	// by the key stay literal.
	Template string

	// Suffix is appended unchanged to generated file names, e.g. ".csv".
	Suffix string

	// Dir is the directory in which backing files are created. When empty,
	// the OS temporary directory is used.
	Dir string

	// KeepFiles prevents Close from removing the backing files.
	KeepFiles bool

	// Initialize, when set, runs once per key right after its backing file
	// is materialized.
	Initialize InitFunc
}
