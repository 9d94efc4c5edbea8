package history

import (
	"fmt"
	"log/slog"
)

// Op names the engine activity during which a failure was swallowed.
type Op string

const (
	OpLoad  Op = "load"
	OpSave  Op = "save"
	OpRead  Op = "read"
	OpWatch Op = "watch"
)

// Failure is an error the engine absorbed instead of returning. The
// clipboard pipeline keeps running after every Failure.
type Failure struct {
	Op  Op
	Err error
}

func (f Failure) Error() string {
	return fmt.Sprintf("history %s: %v", f.Op, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// FailureHandler receives every Failure. It is called synchronously and
// must not call back into the Engine.
type FailureHandler func(Failure)

// LogFailures returns a FailureHandler that logs through logger.
func LogFailures(logger *slog.Logger) FailureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(f Failure) {
		logger.Warn("history operation failed", "op", string(f.Op), "err", f.Err)
	}
}
