package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteRangeResolveAbsolute(t *testing.T) {
	r := ByteRange{Start: 0, End: 1000}
	start, end, err := r.resolve(10000)
	require.NoError(t, err)
	assert.EqualValues(t, 0, start)
	assert.EqualValues(t, 1000, end)
}

func TestByteRangeResolveEndRelative(t *testing.T) {
	r := ByteRange{Start: -500, End: -200}
	start, end, err := r.resolve(10000)
	require.NoError(t, err)
	assert.EqualValues(t, 9500, start)
	assert.EqualValues(t, 9800, end)
}

func TestByteRangeResolveTrailingByte(t *testing.T) {
	r := ByteRange{Start: -100, End: -1}
	start, end, err := r.resolve(10000)
	require.NoError(t, err)
	assert.EqualValues(t, 9900, start)
	assert.EqualValues(t, 9999, end)
}

func TestByteRangeResolveOutOfBounds(t *testing.T) {
	r := ByteRange{Start: 0, End: 20000}
	_, _, err := r.resolve(10000)
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok, "expected a *Error")
	assert.Equal(t, KindRangeOutOfBounds, e.Kind)
}

func TestByteRangeResolveStartAfterEnd(t *testing.T) {
	r := ByteRange{Start: 500, End: 100}
	_, _, err := r.resolve(10000)
	assert.Error(t, err, "expected an error when start > end")
}
