package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Jyzan/benchrun/internal/task"
)

func TestWatchRunError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantNil bool
	}{
		{"nil", nil, true},
		{"completed with task failures", &task.FailedRunError{Failed: 3}, true},
		{"wrapped task failures", fmt.Errorf("watch: %w", &task.FailedRunError{Failed: 1}), true},
		{"fatal error", errors.New("load tasks: no such file"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := watchRunError(tt.err)
			if (got == nil) != tt.wantNil {
				t.Errorf("watchRunError(%v) = %v, wantNil %v", tt.err, got, tt.wantNil)
			}
		})
	}
}

func TestFailedRunError_CountInMessage(t *testing.T) {
	err := &task.FailedRunError{Failed: 4}
	if err.Error() != "4 tasks failed" {
		t.Errorf("got %q", err.Error())
	}
}
