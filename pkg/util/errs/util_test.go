package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSilent(t *testing.T) {
	cause := errors.New("unsupported platform")

	err := WrapSilent(cause)
	assert.True(t, IsSilent(err))
	assert.ErrorIs(t, err, cause)
	assert.EqualError(t, err, "unsupported platform")

	assert.True(t, IsSilent(fmt.Errorf("plugin: %w", NewSilentErr("requires %s", "gate"))))
	assert.False(t, IsSilent(cause))
	assert.False(t, IsSilent(nil))
}
