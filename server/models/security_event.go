package models

// SecurityEvent is an audit record of security-relevant actions,
// e.g. an emergency being triggered.
type SecurityEvent struct {
	BaseModel
	Details string `json:"details"`
	UserID  uint   `json:"user_id" gorm:"not null"`
}

func LogSecurityEvent(userID uint, details string) {
	logg.Infof("[SECURITY EVENT] user=%v details=%v", userID, details)

	err := db.Create(&SecurityEvent{UserID: userID, Details: details}).Error
	if err != nil {
		logg.Errorf("unable to record security event: %v", err)
	}
}
