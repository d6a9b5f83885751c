package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestStore_SetGetDelete(t *testing.T) {
	keyring.MockInit()
	s := NewStore()

	_, err := s.GetAPIKey("openrouter")
	assert.ErrorIs(t, err, ErrNoCredentials)

	require.NoError(t, s.SetAPIKey("openrouter", "  sk-or-v1-abcdef123456\n"))
	require.NoError(t, s.SetAPIKey("gemini", "AIzaSyExample"))

	key, err := s.GetAPIKey("openrouter")
	require.NoError(t, err)
	assert.Equal(t, "sk-or-v1-abcdef123456", key)

	key, err = s.GetAPIKey("gemini")
	require.NoError(t, err)
	assert.Equal(t, "AIzaSyExample", key)

	require.NoError(t, s.DeleteAPIKey("openrouter"))
	_, err = s.GetAPIKey("openrouter")
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.ErrorIs(t, s.DeleteAPIKey("openrouter"), ErrNoCredentials)
}

func TestStore_Validation(t *testing.T) {
	keyring.MockInit()
	s := NewStore()

	assert.Error(t, s.SetAPIKey("", "key"))
	assert.Error(t, s.SetAPIKey("openrouter", "   "))
	_, err := s.GetAPIKey("")
	assert.Error(t, err)
}

func TestStore_KeyringFailure(t *testing.T) {
	keyring.MockInitWithError(assert.AnError)
	t.Cleanup(keyring.MockInit)
	s := NewStore()

	_, err := s.GetAPIKey("openrouter")
	assert.ErrorIs(t, err, ErrKeyringUnavailable)
	assert.ErrorIs(t, s.SetAPIKey("openrouter", "key"), ErrKeyringUnavailable)
	assert.ErrorIs(t, s.DeleteAPIKey("openrouter"), ErrKeyringUnavailable)
}

func TestStore_Description(t *testing.T) {
	assert.NotEmpty(t, NewStore().Description())
}

func TestMaskAPIKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"short", "*****"},
		{"sk-or-v1-0123456789abcdef", "sk-or-********..."},
		{"AIzaSyExampleKey", "AIza********..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskAPIKey(tt.in))
		})
	}
}
