// Package clipboard copies a rendered digest to the system clipboard
// over the OSC 52 terminal escape sequence, for dirsum's -clip flag.
package clipboard

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// Copy writes text to the terminal's clipboard via OSC 52, writing
// directly to /dev/tty so the escape reaches the terminal even when
// stdout is redirected to a file. A missing /dev/tty (no terminal
// attached) is silently a no-op — -clip is a convenience, not a
// contract the run's exit code depends on.
//
// Uses BEL (\x07) as the OSC terminator rather than ST (\x1b\\) because
// BEL is a single byte that survives intact through layered terminal
// environments (SSH, tmux, screen).
func Copy(text string) {
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return
	}
	defer tty.Close()

	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	osc52 := fmt.Sprintf("\x1b]52;c;%s\x07", encoded)

	inTmux := os.Getenv("TMUX") != "" ||
		strings.HasPrefix(os.Getenv("TERM"), "tmux") ||
		strings.HasPrefix(os.Getenv("TERM"), "screen")
	if inTmux {
		fmt.Fprintf(tty, "\x1bPtmux;\x1b%s\x1b\\", osc52)
	}
	tty.WriteString(osc52)
}
