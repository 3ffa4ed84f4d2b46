package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf("error: %s %d", "test", 42)
	require.NotNil(t, err)
	assert.Equal(t, "error: test 42", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestIs(t *testing.T) {
	err1 := New("error 1")
	err2 := New("error 2")
	wrapped := Wrap(err1, "wrapped")

	assert.True(t, Is(wrapped, err1))
	assert.False(t, Is(wrapped, err2))
	assert.False(t, Is(nil, err1))
}

func TestNewConfigError(t *testing.T) {
	err := NewConfigError("layer %s: core must have exactly 36 keys, found %d", "BASE", 35)

	require.NotNil(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "layer BASE")
	assert.Contains(t, err.Error(), "found 35")
}

func TestIsConfigError_Wrapped(t *testing.T) {
	err := NewConfigError("alias hrm expects 2 parameters, got 1")
	wrapped := Wrap(err, "compiling layer BASE for board skeletyl")

	assert.True(t, IsConfigError(wrapped))
	assert.False(t, IsConfigError(New("unrelated")))
	assert.False(t, IsConfigError(nil))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("board %q not found", "lulu")

	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsConfigError(err))
	assert.Contains(t, err.Error(), `board "lulu"`)
}
