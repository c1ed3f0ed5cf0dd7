package models

type SafetyTip struct {
	BaseModel
	Title   string `json:"title" gorm:"not null"`
	Content string `json:"content" gorm:"not null"`
}

// AllSafetyTips returns every tip, oldest first - the order they
// were authored in.
func AllSafetyTips() ([]SafetyTip, error) {
	tips := []SafetyTip{}

	err := db.Order("id").Find(&tips).Error
	if err != nil {
		return nil, err
	}

	return tips, nil
}
