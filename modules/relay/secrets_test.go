package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretManager_PerRoomSecrets(t *testing.T) {
	manager := NewSecretManager("")

	lobby, err := manager.Secret("lobby")
	require.NoError(t, err)
	random, err := manager.Secret("random")
	require.NoError(t, err)

	assert.NotEmpty(t, lobby)
	assert.NotEmpty(t, random)
	assert.NotEqual(t, lobby, random, "two rooms must never share a secret")
}

func TestSecretManager_StableWhileOccupied(t *testing.T) {
	manager := NewSecretManager("")

	first, err := manager.Secret("lobby")
	require.NoError(t, err)
	second, err := manager.Secret("lobby")
	require.NoError(t, err)

	assert.Equal(t, first, second, "secret must not change while the room lives")
}

func TestSecretManager_RotatesAfterDrop(t *testing.T) {
	manager := NewSecretManager("")

	first, err := manager.Secret("lobby")
	require.NoError(t, err)

	manager.Drop("lobby")

	second, err := manager.Secret("lobby")
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "a room's next incarnation gets a fresh secret")
}

func TestSecretManager_StaticOverride(t *testing.T) {
	manager := NewSecretManager("iamthere")

	lobby, err := manager.Secret("lobby")
	require.NoError(t, err)
	random, err := manager.Secret("random")
	require.NoError(t, err)

	assert.Equal(t, "iamthere", lobby)
	assert.Equal(t, "iamthere", random)

	// Drop has no effect on a pinned secret.
	manager.Drop("lobby")
	again, err := manager.Secret("lobby")
	require.NoError(t, err)
	assert.Equal(t, "iamthere", again)
}
