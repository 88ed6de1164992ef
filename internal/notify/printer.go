package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/felixgeelhaar/vulnark/internal/log"
)

// Printer writes notices as colored lines.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	noColor bool
}

// NewPrinter creates a Printer. Colors are disabled when noColor is set or
// when fatih/color decides the terminal cannot show them.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	return &Printer{out: out, noColor: noColor || color.NoColor}
}

var levelColors = map[Level]*color.Color{
	LevelInfo:    color.New(color.FgCyan),
	LevelSuccess: color.New(color.FgGreen),
	LevelWarning: color.New(color.FgYellow),
	LevelError:   color.New(color.FgRed, color.Bold),
}

var levelSymbols = map[Level]string{
	LevelInfo:    "ℹ",
	LevelSuccess: "✓",
	LevelWarning: "!",
	LevelError:   "✗",
}

// Notify implements Notifier.
func (p *Printer) Notify(n Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := levelSymbols[n.Level] + " " + n.Message
	if p.noColor {
		fmt.Fprintln(p.out, line)
		return
	}
	c := levelColors[n.Level]
	c.EnableColor()
	c.Fprintln(p.out, line)
}

// Logged records notices in the structured log.
func Logged(logger *log.Logger) Notifier {
	logger = log.OrDefault(logger).WithComponent("notify")
	return Func(func(n Notice) {
		args := []any{"key", string(n.Key), "message", n.Message}
		switch n.Level {
		case LevelError:
			logger.Warn("notice", args...)
		default:
			logger.Debug("notice", args...)
		}
	})
}
