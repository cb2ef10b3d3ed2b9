package output

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunWithSpinner_ReturnsActionResult(t *testing.T) {
	// Tests run without a terminal, so the action runs directly.
	calls := 0
	err := RunWithSpinner(context.Background(), func() error {
		calls++
		return nil
	}, WithTitle("Inspecting project files..."))
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	err = RunWithSpinner(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}
