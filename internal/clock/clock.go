package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall time so departure countdowns and run timestamps are testable.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)
