package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

type loggerContextKey struct{}

type Logger struct {
	out     io.Writer
	err     io.Writer
	json    bool
	quiet   bool
	verbose bool
}

func DefaultLogger() Logger {
	return Logger{
		out:     os.Stdout,
		err:     os.Stderr,
		json:    false,
		quiet:   false,
		verbose: false,
	}
}

func NewLogger(out, err io.Writer, json, quiet, verbose bool) Logger {
	return Logger{
		out,
		err,
		json,
		quiet,
		verbose,
	}
}

// Ctx returns the logger stored in the context, or the default logger
// if the context doesn't carry one.
func Ctx(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerContextKey{}).(Logger); ok {
		return l
	}
	return DefaultLogger()
}

// WithContext returns a new context carrying this logger.
func (l Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, l)
}

// JsonEnabled reports whether output was requested in JSON form.
func (l *Logger) JsonEnabled() bool {
	return l.json
}

// RawWriter returns the writer used for primary output.
func (l *Logger) RawWriter() io.Writer {
	return l.out
}

func (l *Logger) Out(f string, args ...interface{}) {
	fmt.Fprintf(l.out, f+"\n", args...)
}

func (l *Logger) OutRaw(s string) {
	fmt.Fprintf(l.out, "%s", s)
}

func (l *Logger) Info(tag string, f string, args ...interface{}) {
	if l.quiet {
		return
	}
	print(l.err, color.New(color.FgHiGreen), tag, f, args...)
}

func (l *Logger) Debug(tag string, f string, args ...interface{}) {
	if l.verbose {
		print(l.err, color.New(color.FgGreen), tag, f, args...)
	}
}

func print(w io.Writer, tagColor *color.Color, tag, f string, args ...interface{}) {
	str := fmt.Sprintf(f, args...)
	for _, line := range strings.Split(str, "\n") {
		fmt.Fprintf(w, "%s  %s\n",
			tagColor.Sprint(tag),
			color.WhiteString(line))
	}
}

type Writer struct {
	pipe io.Writer
	tag  string
	mute bool
}

func (l *Logger) InfoWriter(tag string) *Writer {
	return &Writer{
		pipe: l.err,
		tag:  tag,
		mute: l.quiet,
	}
}

func (l *Logger) DebugWriter(tag string) *Writer {
	return &Writer{
		pipe: l.err,
		tag:  tag,
		mute: !l.verbose,
	}
}

func (w *Writer) Write(data []byte) (n int, err error) {
	if w.mute {
		return len(data), nil
	}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		fmt.Fprintf(w.pipe, "%s  %s\n",
			color.HiYellowString(w.tag),
			color.HiWhiteString(line))
	}
	return len(data), nil
}
