package models

type Contact struct {
	BaseModel
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required" gorm:"not null"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Relationship string `json:"relationship,omitempty"`
	IsPrimary    bool   `json:"is_primary"`
	UserID       uint   `json:"-" gorm:"not null"`
}
