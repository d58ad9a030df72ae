package launcher

import (
	"time"

	"github.com/rs/zerolog"

	"gamelaunch/internal/args"
	"gamelaunch/internal/verify"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultJavaPath         = "java"
	defaultSuccessTimeout   = 60 * time.Second
	defaultSuccessIdleDelay = 5 * time.Second
	defaultResetDelay       = 3 * time.Second
	defaultStopGrace        = 5 * time.Second
)

// DefaultSuccessMarkers are log phrases meaning the game window is up.
var DefaultSuccessMarkers = []string{
	"Setting user:",
	"LWJGL Version:",
	"Backend library: LWJGL",
	"Sound engine started",
	"OpenAL initialized",
	"Created: 1024x512x0 minecraft:textures/atlas/blocks.png-atlas",
}

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	// JavaPath is the executable started with the built argument vector.
	JavaPath string
	// Env is appended to the inherited environment of the game process.
	Env []string

	Verifier  *verify.Verifier
	Builder   *args.Builder
	Publisher EventPublisher
	Logger    *zerolog.Logger
	// Credentials fills the player identity of contexts that carry none.
	Credentials CredentialProvider

	SuccessMarkers []string
	// SuccessTimeout forces success when no marker appears in time and the
	// process is still alive.
	SuccessTimeout time.Duration
	// SuccessIdleDelay is the wait between success and the forced idle.
	SuccessIdleDelay time.Duration
	// ResetDelay is the wait between an error and the non-forced idle check.
	ResetDelay time.Duration
	// StopGrace is how long Stop waits after a termination request before
	// killing the process.
	StopGrace time.Duration
}

func (c Config) withDefaults() Config {
	if c.JavaPath == "" {
		c.JavaPath = defaultJavaPath
	}
	if c.Verifier == nil {
		c.Verifier = verify.New(verify.Config{Logger: c.Logger})
	}
	if c.Builder == nil {
		c.Builder = args.NewBuilder(c.Logger)
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if len(c.SuccessMarkers) == 0 {
		c.SuccessMarkers = DefaultSuccessMarkers
	}
	if c.SuccessTimeout <= 0 {
		c.SuccessTimeout = defaultSuccessTimeout
	}
	if c.SuccessIdleDelay <= 0 {
		c.SuccessIdleDelay = defaultSuccessIdleDelay
	}
	if c.ResetDelay <= 0 {
		c.ResetDelay = defaultResetDelay
	}
	if c.StopGrace <= 0 {
		c.StopGrace = defaultStopGrace
	}
	return c
}
