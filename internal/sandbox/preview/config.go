package preview

import (
	"errors"
	"time"

	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/config"
)

// ErrSessionClosed is reported by sessions used after Close.
var ErrSessionClosed = errors.New("preview session is closed")

// Limits on a single preview.
const (
	DefaultFrames = 120
	MaxFrames     = 3600
)

// Config sizes previews.
type Config struct {
	ExecTimeout  time.Duration
	Settle2D     time.Duration
	Settle3D     time.Duration
	FPS          int
	Width        int
	Height       int
	MaxDuration  time.Duration
	// MaxParallel caps previews running at once; QueueTimeout bounds the
	// wait for a free slot.
	MaxParallel  int
	QueueTimeout time.Duration
	// Seed fixes random sequences. Zero picks a time-based seed.
	Seed int64
}

// ConfigFrom maps the sandbox settings onto a preview config.
func ConfigFrom(c config.SandboxConfig) Config {
	return Config{
		ExecTimeout:  c.ExecTimeout,
		Settle2D:     c.Settle2D,
		Settle3D:     c.Settle3D,
		FPS:          c.FPS,
		Width:        c.MountWidth,
		Height:       c.MountHeight,
		MaxDuration:  c.MaxDuration,
		MaxParallel:  c.MaxParallel,
		QueueTimeout: c.QueueTimeout,
	}
}

func (c Config) withDefaults() Config {
	def := ConfigFrom(config.Default().Sandbox)
	if c.ExecTimeout <= 0 {
		c.ExecTimeout = def.ExecTimeout
	}
	if c.Settle2D <= 0 {
		c.Settle2D = def.Settle2D
	}
	if c.Settle3D <= 0 {
		c.Settle3D = def.Settle3D
	}
	if c.FPS <= 0 {
		c.FPS = def.FPS
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = def.Width, def.Height
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = def.MaxDuration
	}
	if c.MaxParallel <= 0 {
		c.MaxParallel = def.MaxParallel
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = def.QueueTimeout
	}
	return c
}
