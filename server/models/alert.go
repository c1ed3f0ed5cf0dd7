package models

const (
	PENDING_ALERT = "pending"
	SENT_ALERT    = "sent"
	FAILED_ALERT  = "failed"
)

// Alert records a triggered emergency & the fanout outcome. The fanout
// itself runs in the background worker pool.
type Alert struct {
	BaseModel
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Status    string  `json:"status" gorm:"not null;default:pending"`
	UserID    uint    `json:"user_id" gorm:"not null"`
}

func CreateAlert(userID uint, latitude, longitude float64) (*Alert, error) {
	alert := Alert{
		Latitude:  latitude,
		Longitude: longitude,
		Status:    PENDING_ALERT,
		UserID:    userID,
	}

	err := db.Create(&alert).Error
	if err != nil {
		return nil, err
	}

	return &alert, nil
}

func SetAlertStatus(alertID interface{}, status string) error {
	return db.Model(&Alert{}).Where("id = ?", alertID).Update("status", status).Error
}

func FindAlert(id interface{}) (*Alert, error) {
	alert := Alert{}
	err := db.First(&alert, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return &alert, nil
}
