package logger

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

// NewTestLogger routes log output through t.Log.
func NewTestLogger(t testing.TB) Logger {
	return &zapWrapper{l: zaptest.NewLogger(t)}
}
