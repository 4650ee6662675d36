package testdb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "user-data-service/pkg/errors"
)

func TestSkippable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not test mode", err: apperrors.ErrNotTestMode, want: true},
		{name: "wrapped not test mode", err: fmt.Errorf("open: %w", apperrors.ErrNotTestMode), want: true},
		{name: "all slots busy", err: ErrNoFreeSlot, want: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Skippable(tt.err))
		})
	}
}
