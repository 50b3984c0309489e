package observability

import "go.uber.org/zap"

// Field re-exports so callers outside this package can build structured log
// fields without importing zap directly.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Float64  = zap.Float64
	Duration = zap.Duration
	Error    = zap.Error
	Strings  = zap.Strings
)
