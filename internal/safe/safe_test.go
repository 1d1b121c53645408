package safe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Value(t *testing.T) {
	v, err := Do(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestDo_ErrorPassesThrough(t *testing.T) {
	boom := errors.New("boom")
	_, err := Do(func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, Crashed(err))
}

func TestDo_RecoversPanic(t *testing.T) {
	v, err := Do(func() ([]byte, error) {
		var m map[string]int
		m["x"] = 1
		return []byte("unreachable"), nil
	})
	require.Error(t, err)
	assert.Nil(t, v)
	assert.True(t, Crashed(err))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_RecoversIndexOutOfRange(t *testing.T) {
	data := []byte{1, 2, 3}
	idx := 10
	_, err := Do(func() (byte, error) { return data[idx], nil })
	assert.ErrorIs(t, err, ErrUnavailable)
}
