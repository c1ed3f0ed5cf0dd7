package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/safeher/safeher/server/auth"
	"gorm.io/gorm"
)

var allFieldsExceptPassword = []string{
	"id",
	"name",
	"email",
	"phone",
	"is_verified",
	"last_login",
	"created_at",
	"updated_at",
}

type User struct {
	BaseModel
	Name       string     `json:"name" validate:"required"`
	Email      string     `json:"email" validate:"required,email" gorm:"not null;unique"`
	Phone      string     `json:"phone" validate:"required" gorm:"not null"`
	Password   string     `json:"password,omitempty" validate:"required,password" gorm:"not null"`
	IsVerified bool       `json:"is_verified" gorm:"default:false"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
	Contacts   []Contact  `json:"contacts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Devices    []Device   `json:"devices,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Alerts     []Alert    `json:"alerts,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (user *User) AddContact(contact *Contact) error {
	contact.UserID = user.ID
	return db.Create(contact).Error
}

func (user *User) LoadContacts() error {
	return db.Order("id").Limit(500).Find(&user.Contacts, "user_id = ?", user.ID).Error
}

func (user *User) FindContact(contactID interface{}) (*Contact, error) {
	contact := Contact{}

	err := db.Where("id = ? AND user_id = ?", contactID, user.ID).First(&contact).Error
	if err != nil {
		return nil, err
	}

	return &contact, nil
}

func (user *User) UpdateContact(contactID interface{}, data map[string]interface{}) error {
	return db.Table("contacts").Where("id = ? AND user_id = ?", contactID, user.ID).Updates(data).Error
}

func (user *User) DeleteContact(contactID interface{}) error {
	result := db.Where("user_id = ?", user.ID).Delete(&Contact{}, contactID)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// PrimaryContacts are the contacts that receive emergency alert SMS fanout.
func (user *User) PrimaryContacts() ([]Contact, error) {
	contacts := []Contact{}

	err := db.Where("user_id = ? AND is_primary = true", user.ID).Find(&contacts).Error
	if err != nil {
		return nil, err
	}

	return contacts, nil
}

func (user *User) RecordLogin() error {
	now := time.Now()
	return db.Model(user).Update("last_login", now).Error
}

// UpsertDevice records the device a user signed in from, keyed by its
// platform device id.
func (user *User) UpsertDevice(device *Device) error {
	existing := Device{}

	err := db.Where("user_id = ? AND device_id = ?", user.ID, device.DeviceID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		device.UserID = user.ID
		device.LastActive = time.Now()
		return db.Create(device).Error
	}
	if err != nil {
		return err
	}

	return db.Model(&existing).Updates(map[string]interface{}{
		"device_type": device.DeviceType,
		"os":          device.OS,
		"last_active": time.Now(),
	}).Error
}

func FindUserBy(field string, value interface{}) (*User, error) {
	user := User{}
	err := db.Select(allFieldsExceptPassword).First(&user, fmt.Sprintf("%v = ?", field), value).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func FindUserPassword(email string) (string, error) {
	user := &User{}
	err := db.Select("Password").First(user, "email = ?", email).Error

	if err != nil {
		return "", err
	}
	return user.Password, nil
}

func CreateUser(user *User) error {
	passwordHash, err := auth.HashPassword(user.Password)
	if err != nil {
		return err
	}
	user.Password = passwordHash

	return db.Create(user).Error
}

func UserEmailTaken(email string) (bool, error) {
	err := db.First(&User{}, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
