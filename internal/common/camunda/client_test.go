package camunda

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("rpc error: code = Unavailable desc = connection refused"), true},
		{errors.New("context deadline exceeded"), true},
		{errors.New("NOT_FOUND: job not found"), false},
		{errors.New("permission denied"), false},
	}
	for _, tt := range tests {
		name := "nil"
		if tt.err != nil {
			name = tt.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableZeebeError(tt.err))
		})
	}
}
