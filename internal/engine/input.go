package engine

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/cravesound/craveengine/pkg/player"
)

// InputReader recognizes the two tokens spec.md §6 defines: 'p' toggles
// play/pause, 'q' begins shutdown. When stdin is a terminal it reads raw
// keystrokes (no Enter required); otherwise it falls back to line-
// buffered input.
type InputReader struct {
	cmds chan<- player.Command
	quit chan<- struct{}
}

// NewInputReader builds a reader that forwards toggle commands to cmds
// and signals quit exactly once.
func NewInputReader(cmds chan<- player.Command, quit chan<- struct{}) *InputReader {
	return &InputReader{cmds: cmds, quit: quit}
}

// Run blocks reading from stdin until a 'q' is seen or stdin is closed.
// It is meant to be launched in its own goroutine.
func (ir *InputReader) Run() {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		ir.runRaw(fd)
		return
	}
	ir.runLineBuffered()
}

func (ir *InputReader) runRaw(fd int) {
	state, err := term.MakeRaw(fd)
	if err != nil {
		ir.runLineBuffered()
		return
	}
	defer term.Restore(fd, state)

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return
		}
		if ir.dispatch(buf[0]) {
			return
		}
	}
}

func (ir *InputReader) runLineBuffered() {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		if ir.dispatch(line[0]) {
			return
		}
	}
}

// dispatch translates one input byte into a command or quit signal,
// returning true once the reader should stop.
func (ir *InputReader) dispatch(b byte) bool {
	switch b {
	case 'p', 'P':
		select {
		case ir.cmds <- player.TogglePlayPause:
		default:
		}
	case 'q', 'Q':
		select {
		case ir.quit <- struct{}{}:
		default:
		}
		return true
	}
	return false
}
