// Package timeouts provides the deadlines applied to store and gateway calls.
//
// Ping bounds health checks, Short single-document lookups, Medium lists and
// single writes, and Long the workflows that touch several collections or
// the payment gateway.
package timeouts

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

// Config is a full set of deadlines. In Configure, a zero field keeps the
// value already in effect.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func defaults() *Config {
	return &Config{Ping: DefaultPing, Short: DefaultShort, Medium: DefaultMedium, Long: DefaultLong}
}

var active atomic.Pointer[Config]

func init() { active.Store(defaults()) }

func Ping() time.Duration   { return active.Load().Ping }
func Short() time.Duration  { return active.Load().Short }
func Medium() time.Duration { return active.Load().Medium }
func Long() time.Duration   { return active.Load().Long }

// Current returns a copy of the deadlines in effect.
func Current() Config { return *active.Load() }

// Configure merges overrides into the active deadlines. It is meant for
// startup, before any handler runs.
func Configure(overrides Config) {
	next := Current()
	pick := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	pick(&next.Ping, overrides.Ping)
	pick(&next.Short, overrides.Short)
	pick(&next.Medium, overrides.Medium)
	pick(&next.Long, overrides.Long)
	active.Store(&next)
}

// Reset puts the defaults back.
func Reset() { active.Store(defaults()) }

// WithTimeout is context.WithTimeout whose cancel func logs a warning if the
// deadline fired before the caller finished.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "verify payment")
//	defer cancel()
func WithTimeout(parent context.Context, d time.Duration, log *zap.Logger, op string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, d)
	return ctx, func() {
		if log != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn("operation timed out", zap.String("operation", op), zap.Duration("timeout", d))
		}
		cancel()
	}
}
