package tempalloc_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robrwo/multitemp/internal/tempalloc"
	"github.com/robrwo/multitemp/internal/testutil"
)

func TestCreateDefaults(t *testing.T) {
	dir := testutil.TempDirectory(t)

	f, err := tempalloc.Create("", "", dir, true)
	require.NoError(t, err)

	require.FileExists(t, f.Path())
	require.Equal(t, dir, filepath.Dir(f.Path()))

	base := filepath.Base(f.Path())
	require.True(t, strings.HasPrefix(base, "tmp-"), base)
	require.Len(t, base, len(tempalloc.DefaultTemplate))
}

func TestCreateTemplateSuffixAndRest(t *testing.T) {
	dir := testutil.TempDirectory(t)

	f, err := tempalloc.Create("pre-XXXX-post", ".log", dir, true)
	require.NoError(t, err)

	base := filepath.Base(f.Path())
	require.Regexp(t, regexp.MustCompile(`^pre-[0-9a-f]{4}-post\.log$`), base)
}

func TestCreateUsesLastPlaceholderRun(t *testing.T) {
	dir := testutil.TempDirectory(t)

	f, err := tempalloc.Create("XXXX-mid-XXXXXX", "", dir, true)
	require.NoError(t, err)

	base := filepath.Base(f.Path())
	require.Regexp(t, regexp.MustCompile(`^XXXX-mid-[0-9a-f]{6}$`), base)
}

func TestCreateUniqueNames(t *testing.T) {
	dir := testutil.TempDirectory(t)

	seen := map[string]bool{}

	for i := 0; i < 20; i++ {
		f, err := tempalloc.Create("f-XXXX", "", dir, true)
		require.NoError(t, err)
		require.False(t, seen[f.Path()], "duplicate path %v", f.Path())

		seen[f.Path()] = true
	}
}

func TestCreateInvalidTemplate(t *testing.T) {
	dir := testutil.TempDirectory(t)

	_, err := tempalloc.Create("no-placeholder-XXX", "", dir, true)
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	tpl, err := tempalloc.Parse("pre-XXXX-post")
	require.NoError(t, err)
	require.Equal(t, tempalloc.Template{Prefix: "pre-", FillLen: 4, Rest: "-post"}, tpl)

	tpl, err = tempalloc.Parse("XXXX-mid-XXXXXX")
	require.NoError(t, err)
	require.Equal(t, tempalloc.Template{Prefix: "XXXX-mid-", FillLen: 6, Rest: ""}, tpl)

	for _, good := range []string{"abcXXXX", "XXXXabc", "a-XXXXXXXX-b"} {
		_, err := tempalloc.Parse(good)
		require.NoError(t, err, good)
	}

	for _, bad := range []string{"abc", "aXXXb", ""} {
		_, err := tempalloc.Parse(bad)
		require.Error(t, err, bad)
	}
}

func TestTemplateLiteralPartsStayLiteral(t *testing.T) {
	dir := testutil.TempDirectory(t)

	// placeholder characters in the literal parts are not treated as fill
	f, err := tempalloc.Template{Prefix: "XXXX-", FillLen: 4, Rest: "-XXXX"}.Create("", dir, true)
	require.NoError(t, err)

	base := filepath.Base(f.Path())
	require.Regexp(t, regexp.MustCompile(`^XXXX-[0-9a-f]{4}-XXXX$`), base)
}

func TestTemplateWithoutFillRejected(t *testing.T) {
	dir := testutil.TempDirectory(t)

	_, err := tempalloc.Template{Prefix: "a"}.Create("", dir, true)
	require.Error(t, err)
}

func TestReleaseRemoves(t *testing.T) {
	dir := testutil.TempDirectory(t)

	f, err := tempalloc.Create("", "", dir, true)
	require.NoError(t, err)

	require.NoError(t, f.Release())
	require.NoFileExists(t, f.Path())

	// second release is a no-op
	require.NoError(t, f.Release())
}

func TestReleaseKeepsWhenNotRequested(t *testing.T) {
	dir := testutil.TempDirectory(t)

	f, err := tempalloc.Create("", "", dir, false)
	require.NoError(t, err)

	require.NoError(t, f.Release())
	require.FileExists(t, f.Path())
}

func TestReleaseMissingFileIsNotAnError(t *testing.T) {
	dir := testutil.TempDirectory(t)

	f, err := tempalloc.Create("", "", dir, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(f.Path()))
	require.NoError(t, f.Release())
}
