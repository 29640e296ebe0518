package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	qt "github.com/frankban/quicktest"
)

func TestContextRoundtrip(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewLogger(&out, &errOut, true, false, true)
	ctx := logger.WithContext(context.Background())
	qt.Check(t, Ctx(ctx), qt.Equals, logger)
	// A bare context falls back to the default logger.
	qt.Check(t, Ctx(context.Background()), qt.Equals, DefaultLogger())
}

func TestQuietAndVerbose(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer

	logger := NewLogger(&out, &errOut, false, true, false)
	logger.Info("tag", "should be suppressed")
	logger.Debug("tag", "should be suppressed")
	logger.Out("primary output survives quiet")
	qt.Check(t, errOut.String(), qt.Equals, "")
	qt.Check(t, out.String(), qt.Equals, "primary output survives quiet\n")

	out.Reset()
	errOut.Reset()
	logger = NewLogger(&out, &errOut, false, false, true)
	logger.Debug("tag", "two\nlines")
	qt.Check(t, errOut.String(), qt.Equals, "tag  two\ntag  lines\n")
}

func TestWriterMuting(t *testing.T) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	logger := NewLogger(&out, &errOut, false, false, false)

	n, err := logger.DebugWriter("dl").Write([]byte("hidden\n"))
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, n, qt.Equals, len("hidden\n"))
	qt.Check(t, errOut.String(), qt.Equals, "")

	_, err = logger.InfoWriter("dl").Write([]byte("visible\n"))
	qt.Assert(t, err, qt.IsNil)
	qt.Check(t, errOut.String(), qt.Equals, "dl  visible\n")
}
