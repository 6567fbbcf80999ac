package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than limit goroutines are running.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("goroutine count %d exceeds %d", n, limit)
		}
		return nil
	}
}

// NonEmptyCheck fails while count reports zero. It guards readiness on data
// that must be loaded before serving, such as the catalog tables.
func NonEmptyCheck(what string, count func() int) CheckFunc {
	return func(context.Context) error {
		if count() == 0 {
			return errors.Errorf("%s is empty", what)
		}
		return nil
	}
}

// PingCheck adapts a Ping method, such as pgxpool.Pool.Ping.
func PingCheck(ping func(context.Context) error) CheckFunc {
	return func(ctx context.Context) error {
		return errors.Wrap(ping(ctx), "ping")
	}
}
