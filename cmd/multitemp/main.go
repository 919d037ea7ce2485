// Command multitemp fans out delimited lines from standard input into one
// temporary file per key, where the key is the first field of each line.
package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/robrwo/multitemp"
	"github.com/robrwo/multitemp/logging"
)

var (
	app = kingpin.New("multitemp", "Fan out delimited lines from standard input into one file per key.")

	outputDir  = app.Flag("dir", "Directory in which to create output files.").Envar("MULTITEMP_DIR").String()
	suffix     = app.Flag("suffix", "Filename suffix for output files.").String()
	template   = app.Flag("template", "Naming pattern. Must contain XXXX; the literal KEY is replaced with each key.").String()
	keepFiles  = app.Flag("keep", "Keep output files on exit (disable to clean them up after printing a summary).").Default("true").Bool()
	delimiter  = app.Flag("delimiter", "Field delimiter used to extract the key from each line.").Default(",").String()
	headerLine = app.Flag("header", "Header line written once to each new file.").String()
	lockFile   = app.Flag("lock-file", "Lock file serializing concurrent runs against the same output directory.").String()
	logLevel   = app.Flag("log-level", "Console log level.").Default("warn").Enum("debug", "info", "warn", "error")
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx := logging.WithLogger(context.Background(), consoleLoggerFactory(*logLevel))

	if err := run(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "multitemp:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, input io.Reader, output io.Writer) (retErr error) {
	if *lockFile != "" {
		l := flock.New(*lockFile)
		if err := l.Lock(); err != nil {
			return errors.Wrapf(err, "cannot acquire lock file %v", *lockFile)
		}

		defer l.Unlock() //nolint:errcheck
	}

	opts := multitemp.Options{
		Template:  *template,
		Suffix:    *suffix,
		Dir:       *outputDir,
		KeepFiles: *keepFiles,
	}

	if *headerLine != "" {
		opts.Initialize = func(ctx context.Context, key, path string, w *os.File) error {
			_, err := fmt.Fprintln(w, *headerLine)

			return errors.Wrapf(err, "cannot write header for key %q", key)
		}
	}

	m, err := multitemp.New(opts)
	if err != nil {
		return err
	}

	// close on every exit path so --no-keep cleanup always happens
	defer func() {
		retErr = stderrors.Join(retErr, m.Close(ctx))
	}()

	if err := fanOut(ctx, m, input); err != nil {
		return err
	}

	for _, key := range m.Keys() {
		path, err := m.Path(ctx, key, nil)
		if err != nil {
			return err
		}

		fmt.Fprintf(output, "%v %v\n", color.GreenString(key), path)
	}

	return nil
}

func fanOut(ctx context.Context, m *multitemp.Manager, input io.Reader) error {
	s := bufio.NewScanner(input)

	for s.Scan() {
		line := s.Text()
		if line == "" {
			continue
		}

		key, _, _ := strings.Cut(line, *delimiter)

		w, err := m.Writer(ctx, key, nil)
		if err != nil {
			return err
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.Wrapf(err, "cannot write line for key %q", key)
		}
	}

	return errors.Wrap(s.Err(), "cannot read input")
}
