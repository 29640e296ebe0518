package render

import (
	"io"
	"strconv"
)

// Yet another quick-n-dirty ansi color code table.
//
// Why not use a library?  We already carry fatih/color for the logging
// package, but its styles are stateful objects that read environment
// variables, and the markdown renderer wants to compose raw codes into a
// stream mid-walk.  The table below is the whole requirement.
//
// (muesli/termenv and lipgloss were also auditioned; both wrap the output
// writer and bring far more machinery than a help screen needs.)

type ansiColor int

var (
	ansi_CSI_str   = "\x1b["
	ansi_CSI_bytes = []byte(ansi_CSI_str)
	ansi_SGR       = 'm'
	ansi_SGR_bytes = []byte{byte(ansi_SGR)}
)

func writeAnsi(wr io.Writer, codes ...ansiColor) (n int, err error) {
	var n2 int
	n2, err = wr.Write(ansi_CSI_bytes)
	n += n2
	if err != nil {
		return
	}
	for i, code := range codes {
		if i > 0 {
			n2, err = wr.Write([]byte{';'})
			n += n2
			if err != nil {
				return
			}
		}
		n2, err = wr.Write([]byte(strconv.Itoa(int(code)))) // TODO some cycles would be saved if we byteify these in advance.
		n += n2
		if err != nil {
			return
		}
	}
	n2, err = wr.Write(ansi_SGR_bytes)
	n += n2
	return
}

// Attributes
// (We'll call these "colors" still because they fall in the "m" feature of ANSI codes.)
const (
	ansiReset ansiColor = iota
	ansiBold
	ansiFaint
	ansiItalic
	ansiUnderline
	ansiBlinkSlow
	ansiBlinkRapid
	ansiReverseVideo
	ansiConcealed
	ansiCrossedOut
)

// Foreground colors
const (
	ansiFgBlack ansiColor = iota + 30
	ansiFgRed
	ansiFgGreen
	ansiFgYellow
	ansiFgBlue
	ansiFgMagenta
	ansiFgCyan
	ansiFgWhite
)

// Foreground Hi-Intensity colors
const (
	ansiFgHiBlack ansiColor = iota + 90
	ansiFgHiRed
	ansiFgHiGreen
	ansiFgHiYellow
	ansiFgHiBlue
	ansiFgHiMagenta
	ansiFgHiCyan
	ansiFgHiWhite
)

// Background colors
const (
	ansiBgBlack ansiColor = iota + 40
	ansiBgRed
	ansiBgGreen
	ansiBgYellow
	ansiBgBlue
	ansiBgMagenta
	ansiBgCyan
	ansiBgWhite
)

// Background Hi-Intensity colors
const (
	ansiBgHiBlack ansiColor = iota + 100
	ansiBgHiRed
	ansiBgHiGreen
	ansiBgHiYellow
	ansiBgHiBlue
	ansiBgHiMagenta
	ansiBgHiCyan
	ansiBgHiWhite
)
