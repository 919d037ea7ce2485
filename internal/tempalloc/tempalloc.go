// Package tempalloc creates uniquely-named temporary files from naming
// templates containing a run of placeholder characters.
package tempalloc

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	placeholderChar   = 'X'
	minPlaceholderLen = 4

	// DefaultTemplate is used when no template is given.
	DefaultTemplate = "tmp-XXXXXXXX"

	maxAttempts = 10000

	fileMode os.FileMode = 0o600
)

// File is an allocated temporary file path. Its Release method controls
// deletion of the underlying file.
type File struct {
	path            string
	removeOnRelease bool
}

// Path returns the allocated file path.
func (f *File) Path() string {
	return f.path
}

// Release removes the underlying file if the allocation requested
// remove-on-release. It is safe to call multiple times and a file already
// removed by somebody else is not an error.
func (f *File) Release() error {
	if !f.removeOnRelease {
		return nil
	}

	f.removeOnRelease = false

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "cannot remove temporary file")
	}

	return nil
}

// Template is a naming pattern parsed into its literal parts and the length
// of the placeholder run between them. The literal parts are used verbatim,
// so placeholder characters appearing in them stay literal.
type Template struct {
	Prefix  string
	FillLen int
	Rest    string
}

// Parse locates the last run of at least four consecutive 'X' characters in
// the template and returns the parsed form.
func Parse(template string) (Template, error) {
	i := len(template)

	for i > 0 {
		j := i
		for j > 0 && template[j-1] == placeholderChar {
			j--
		}

		if i-j >= minPlaceholderLen {
			return Template{Prefix: template[:j], FillLen: i - j, Rest: template[i:]}, nil
		}

		if j == i {
			i--
		} else {
			i = j
		}
	}

	return Template{}, errors.Errorf("template %q must contain at least %v consecutive %q characters", template, minPlaceholderLen, string(placeholderChar))
}

// Create allocates a new, uniquely named file in dir. The placeholder run is
// replaced with random fill and the suffix is appended unchanged. The file
// exists on disk when Create returns. An empty dir selects the OS temporary
// directory.
func (t Template) Create(suffix, dir string, removeOnRelease bool) (*File, error) {
	if t.FillLen <= 0 {
		return nil, errors.New("template has no placeholder run")
	}

	if dir == "" {
		dir = os.TempDir()
	}

	for i := 0; i < maxAttempts; i++ {
		fill, err := randomFill(t.FillLen)
		if err != nil {
			return nil, err
		}

		path := filepath.Join(dir, t.Prefix+fill+t.Rest+suffix)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
		if os.IsExist(err) {
			continue
		}

		if err != nil {
			return nil, errors.Wrap(err, "cannot create temporary file")
		}

		if cerr := f.Close(); cerr != nil {
			return nil, errors.Wrap(cerr, "cannot close newly created temporary file")
		}

		return &File{path: path, removeOnRelease: removeOnRelease}, nil
	}

	return nil, errors.Errorf("cannot allocate unique temporary file after %v attempts", maxAttempts)
}

// Create parses the template and allocates a file from it. An empty template
// selects DefaultTemplate.
func Create(template, suffix, dir string, removeOnRelease bool) (*File, error) {
	if template == "" {
		template = DefaultTemplate
	}

	t, err := Parse(template)
	if err != nil {
		return nil, err
	}

	return t.Create(suffix, dir, removeOnRelease)
}

func randomFill(n int) (string, error) {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "cannot get random bytes for temporary filename")
	}

	return hex.EncodeToString(b)[:n], nil
}
