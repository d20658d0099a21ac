package exitcodes

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil is success", nil, Success},
		{"plain error", errors.New("boom"), Failure},
		{"config error", ErrInvalidConfig, InvalidConfig},
		{"wrapped config error", fmt.Errorf("load: %w", ErrInvalidConfig), InvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromError(tt.err))
		})
	}
}
