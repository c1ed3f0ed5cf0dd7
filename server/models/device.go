package models

import "time"

type Device struct {
	BaseModel
	DeviceID   string    `json:"device_id" gorm:"not null"`
	DeviceType string    `json:"device_type"`
	OS         string    `json:"os"`
	LastActive time.Time `json:"last_active"`
	UserID     uint      `json:"-" gorm:"not null"`
}
