package termin

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/grindlemire/go-termin/internal/debug"
)

// DefaultEscapeDelay is how long a lone ESC, or the start of a sequence, may
// wait for the rest of its bytes before it is decoded as typed keys.
const DefaultEscapeDelay = 50 * time.Millisecond

// EscapeDelayEnv overrides the default escape delay, in milliseconds.
const EscapeDelayEnv = "ESCDELAY"

// Option configures an EventSource.
type Option func(*config) error

type config struct {
	escapeDelay  time.Duration
	consoleMode  ConsoleMode
	resizeEvents bool
	sizeFunc     func() (WindowSize, error)
	layout       KeyboardLayout
	screen       ScreenBuffer
}

func defaultConfig() *config {
	cfg := &config{
		escapeDelay:  DefaultEscapeDelay,
		consoleMode:  ConsoleVT,
		resizeEvents: true,
	}
	if v := os.Getenv(EscapeDelayEnv); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			debug.Log("options: ignoring %s=%q", EscapeDelayEnv, v)
		} else {
			cfg.escapeDelay = time.Duration(ms) * time.Millisecond
		}
	}
	return cfg
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WithEscapeDelay sets how long ambiguous input waits for more bytes.
// It takes precedence over the ESCDELAY environment variable.
func WithEscapeDelay(d time.Duration) Option {
	return func(c *config) error {
		if d < 0 {
			return fmt.Errorf("escape delay must be non-negative, got %v", d)
		}
		c.escapeDelay = d
		return nil
	}
}

// WithConsoleMode selects how Windows console key records are decoded.
// It has no effect on other platforms.
func WithConsoleMode(mode ConsoleMode) Option {
	return func(c *config) error {
		switch mode {
		case ConsoleVT, ConsoleLegacy:
			c.consoleMode = mode
			return nil
		}
		return fmt.Errorf("unknown console mode %d", mode)
	}
}

// WithResizeEvents enables or disables delivery of ResizeEvent on unix.
// Resize events are enabled by default when the input is a terminal.
func WithResizeEvents(enabled bool) Option {
	return func(c *config) error {
		c.resizeEvents = enabled
		return nil
	}
}

// WithSizeFunc replaces the window size query used for resize events.
func WithSizeFunc(fn func() (WindowSize, error)) Option {
	return func(c *config) error {
		if fn == nil {
			return fmt.Errorf("size func must not be nil")
		}
		c.sizeFunc = fn
		return nil
	}
}

// WithKeyboardLayout replaces the keyboard layout lookup used by legacy
// console decoding.
func WithKeyboardLayout(layout KeyboardLayout) Option {
	return func(c *config) error {
		c.layout = layout
		return nil
	}
}

// WithScreenBuffer replaces the screen buffer query used to translate
// legacy console mouse rows.
func WithScreenBuffer(screen ScreenBuffer) Option {
	return func(c *config) error {
		c.screen = screen
		return nil
	}
}
