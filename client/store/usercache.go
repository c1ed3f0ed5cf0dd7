package store

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/safeher/safeher/client"
	"github.com/safeher/safeher/utils"
)

const USER_CACHE_FILE_NAME = "user.json"

// UserCache is the ordinary(non-secret) key/value slot holding the serialized
// user record, a local copy of server-side user state.
type UserCache struct {
	filePath string
}

func NewUserCache(rootDir string) (*UserCache, error) {
	err := utils.CreateDirIfNotExist(rootDir)
	if err != nil {
		return nil, err
	}

	return &UserCache{filePath: filepath.Join(rootDir, USER_CACHE_FILE_NAME)}, nil
}

// Read returns the cached user record, or ErrNoValue when none is cached.
// A corrupt cache file reads as 'no value' - the session layer treats any
// incomplete pair as no session.
func (cache *UserCache) Read() (*client.User, error) {
	data, err := ioutil.ReadFile(cache.filePath)
	if os.IsNotExist(err) {
		return nil, ErrNoValue
	}
	if err != nil {
		return nil, err
	}

	user := client.User{}
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, ErrNoValue
	}

	return &user, nil
}

func (cache *UserCache) Write(user *client.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(cache.filePath, data, 0600)
}

func (cache *UserCache) Clear() error {
	err := os.Remove(cache.filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
