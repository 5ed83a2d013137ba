package gpio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeReaderRead(t *testing.T) {
	f := NewFakeReader([]bool{Low, High, Low})

	v, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, Low, v)

	v, err = f.Read()
	require.NoError(t, err)
	assert.Equal(t, High, v)

	v, err = f.Read()
	require.NoError(t, err)
	assert.Equal(t, Low, v)

	// Fourth read should repeat last sample
	v, err = f.Read()
	require.NoError(t, err)
	assert.Equal(t, Low, v)

	assert.Equal(t, 4, f.Reads())
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)

	_, err := f.Read()
	assert.Error(t, err)
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader([]bool{Low})
	f.SetError(errors.New("simulated error"))

	_, err := f.Read()
	require.Error(t, err)
	assert.Equal(t, "simulated error", err.Error())

	f.SetError(nil)
	v, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, Low, v)
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader([]bool{High})
	assert.False(t, f.Closed(), "should not be closed initially")

	require.NoError(t, f.Close())
	assert.True(t, f.Closed(), "should be closed after Close()")
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]bool{Low, High})

	// Consume first sample
	f.Read()
	f.Reset()

	// Should read first sample again
	v, _ := f.Read()
	assert.Equal(t, Low, v)
	assert.Equal(t, 1, f.Reads())
}

func TestRepeat(t *testing.T) {
	got := Repeat(Low, 3)
	assert.Equal(t, []bool{Low, Low, Low}, got)
	assert.Empty(t, Repeat(High, 0))
}
