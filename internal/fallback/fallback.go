package fallback

import (
	"context"
	"log/slog"
)

// Strategy is one step of an ordered fallback chain. Run reports ok=false
// for a miss; an error is treated as a miss as well.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, bool, error)
}

// First runs strategies in order and stops at the first one that succeeds.
// It returns the winning value and strategy name, or ok=false when every
// strategy missed or the context ended.
func First[T any](ctx context.Context, strategies ...Strategy[T]) (value T, name string, ok bool) {
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			slog.Debug("Fallback chain interrupted", "strategy", s.Name, "error", err)
			return value, "", false
		}

		v, hit, err := s.Run(ctx)
		if err != nil {
			slog.Warn("Fallback strategy failed", "strategy", s.Name, "error", err)
			continue
		}
		if hit {
			return v, s.Name, true
		}
		slog.Debug("Fallback strategy missed", "strategy", s.Name)
	}
	return value, "", false
}

// FirstNonEmpty returns the first non-empty value, or "" if there is none
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
