package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	sqliteEncrypt "github.com/Daskott/gorm-sqlite-cipher"
	"github.com/safeher/safeher/utils"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const KEYSTORE_DB_NAME = "safeher-keys.db"

// ErrNoValue is returned when a key has no stored value.
var ErrNoValue = errors.New("no value stored for key")

type secret struct {
	Key   string `gorm:"primarykey"`
	Value string `gorm:"not null"`
}

// Keystore is the secrecy-sensitive key/value slot backed by an encrypted
// sqlite database. Only the session layer writes to it.
type Keystore struct {
	db *gorm.DB
}

// NewKeystore opens(or creates) the encrypted keystore under rootDir,
// keyed with the given passphrase.
func NewKeystore(rootDir, passPhrase string) (*Keystore, error) {
	dsn, err := keystoreDSN(rootDir, passPhrase)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqliteEncrypt.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				LogLevel:                  gormLogger.Silent,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keystore: %v", err)
	}

	err = db.AutoMigrate(&secret{})
	if err != nil {
		return nil, fmt.Errorf("failed to migrate keystore: %v", err)
	}

	return &Keystore{db: db}, nil
}

func (ks *Keystore) Get(key string) (string, error) {
	record := secret{}

	err := ks.db.First(&record, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoValue
	}
	if err != nil {
		return "", err
	}

	return record.Value, nil
}

func (ks *Keystore) Set(key, value string) error {
	record := secret{Key: key, Value: value}

	// Upsert, the slot holds at most one value per key
	err := ks.db.Where("key = ?", key).Delete(&secret{}).Error
	if err != nil {
		return err
	}

	return ks.db.Create(&record).Error
}

func (ks *Keystore) Delete(key string) error {
	return ks.db.Where("key = ?", key).Delete(&secret{}).Error
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

func keystoreDSN(rootDir, passPhrase string) (string, error) {
	err := utils.CreateDirIfNotExist(rootDir)
	if err != nil {
		return "", err
	}

	dbFilePath := filepath.Join(rootDir, KEYSTORE_DB_NAME)

	return fmt.Sprintf(
		"file:%v?_pragma_key=%s&_pragma_cipher_page_size=4096&_journal_mode=WAL",
		dbFilePath,
		passPhrase,
	), nil
}
