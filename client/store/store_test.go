package store

import (
	"testing"

	"github.com/safeher/safeher/client"
	"github.com/stretchr/testify/assert"
)

func TestKeystoreRoundTrip(t *testing.T) {
	keystore, err := NewKeystore(t.TempDir(), "test-passphrase")
	assert.Nil(t, err)

	_, err = keystore.Get("authToken")
	assert.ErrorIs(t, err, ErrNoValue)

	assert.Nil(t, keystore.Set("authToken", "secret-token"))

	value, err := keystore.Get("authToken")
	assert.Nil(t, err)
	assert.Equal(t, "secret-token", value)

	// Set overwrites
	assert.Nil(t, keystore.Set("authToken", "rotated-token"))
	value, _ = keystore.Get("authToken")
	assert.Equal(t, "rotated-token", value)

	assert.Nil(t, keystore.Delete("authToken"))
	_, err = keystore.Get("authToken")
	assert.ErrorIs(t, err, ErrNoValue)
}

func TestKeystoreDeleteMissingKey(t *testing.T) {
	keystore, err := NewKeystore(t.TempDir(), "test-passphrase")
	assert.Nil(t, err)

	assert.Nil(t, keystore.Delete("never-set"), "Deleting a missing key should be a no-op")
}

func TestKeystoreSurvivesReopen(t *testing.T) {
	rootDir := t.TempDir()

	keystore, err := NewKeystore(rootDir, "test-passphrase")
	assert.Nil(t, err)
	assert.Nil(t, keystore.Set("authToken", "persisted-token"))

	reopened, err := NewKeystore(rootDir, "test-passphrase")
	assert.Nil(t, err)

	value, err := reopened.Get("authToken")
	assert.Nil(t, err)
	assert.Equal(t, "persisted-token", value)
}

func TestUserCacheRoundTrip(t *testing.T) {
	cache, err := NewUserCache(t.TempDir())
	assert.Nil(t, err)

	_, err = cache.Read()
	assert.ErrorIs(t, err, ErrNoValue)

	user := client.User{ID: 7, Name: "Asha", Email: "asha@example.com", Phone: "+14155550101"}
	assert.Nil(t, cache.Write(&user))

	read, err := cache.Read()
	assert.Nil(t, err)
	assert.Equal(t, user, *read)

	assert.Nil(t, cache.Clear())
	_, err = cache.Read()
	assert.ErrorIs(t, err, ErrNoValue)

	// Clearing an already-empty cache is fine
	assert.Nil(t, cache.Clear())
}
