package credential

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringRoundTrip(t *testing.T) {
	k := NewKeyring(keyring.NewArrayKeyring(nil))

	token, err := k.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, k.Save("abc"))
	token, err = k.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, k.Clear())
	require.NoError(t, k.Clear(), "clearing twice is fine")
	token, err = k.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestMemory(t *testing.T) {
	var m Memory
	require.NoError(t, m.Save("tok"))
	got, _ := m.Load()
	assert.Equal(t, "tok", got)
	require.NoError(t, m.Clear())
	got, _ = m.Load()
	assert.Empty(t, got)
}
