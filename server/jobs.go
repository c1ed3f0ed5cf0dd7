package server

import (
	"fmt"

	"github.com/safeher/safeher/server/gstorage"
	"github.com/safeher/safeher/server/models"
	"github.com/safeher/safeher/server/work"
)

const (
	SEND_EMERGENCY_ALERTS_HANDLER = "send_emergency_alerts"
	BACKUP_SQLITE_DB_HANDLER      = "backup_sqlite_db"

	MAPS_SEARCH_URL = "https://www.google.com/maps/search/?api=1&query=%v,%v"
)

// sendEmergencyAlerts fans an alert out by sms to all of the user's primary
// contacts. The alert status records the outcome, so a user can see whether
// their contacts were actually reached.
func sendEmergencyAlerts(args map[string]interface{}) error {
	// json round-trips numbers as float64
	userID := uint(args["user_id"].(float64))
	alertID := uint(args["alert_id"].(float64))

	user, err := models.FindUserBy("id", userID)
	if err != nil {
		return fmt.Errorf("loading user %v: %v", userID, err)
	}

	alert, err := models.FindAlert(alertID)
	if err != nil {
		return fmt.Errorf("loading alert %v: %v", alertID, err)
	}

	contacts, err := user.PrimaryContacts()
	if err != nil {
		return fmt.Errorf("loading primary contacts for user %v: %v", userID, err)
	}

	if len(contacts) == 0 {
		logg.Warnf("User %v triggered an emergency but has no primary contacts", userID)
		models.SetAlertStatus(alertID, models.FAILED_ALERT)
		return nil
	}

	message := fmt.Sprintf(
		"EMERGENCY ALERT: %v needs help! Last known location: "+MAPS_SEARCH_URL,
		user.Name, alert.Latitude, alert.Longitude,
	)

	sent := 0
	for _, contact := range contacts {
		if !twilioClient.Enabled() {
			logg.Infof("[sms disabled] to=%v message=%q", contact.Phone, message)
			sent++
			continue
		}

		if err := twilioClient.SendMessage(contact.Phone, message); err != nil {
			logg.Errorf("sending alert %v to %v failed: %v", alertID, contact.Phone, err)
			continue
		}
		sent++
	}

	if sent == 0 {
		models.SetAlertStatus(alertID, models.FAILED_ALERT)
		return fmt.Errorf("alert %v could not be delivered to any of %v contacts", alertID, len(contacts))
	}

	return models.SetAlertStatus(alertID, models.SENT_ALERT)
}

func backupSqliteDb(map[string]interface{}) error {
	gs, err := gstorage.NewGStorage(serverConfig.Google.ApplicationCredentials)
	if err != nil {
		return err
	}

	dbFilePath, err := models.DbFilePath(configDir)
	if err != nil {
		return err
	}

	return gs.UploadFile(
		serverConfig.Google.Storage.Bucket,
		serverConfig.Google.Storage.Prefix,
		dbFilePath,
	)
}

func registerJobHandlers(wpa *work.WorkerPoolAdapter) {
	wpa.Register(SEND_EMERGENCY_ALERTS_HANDLER, sendEmergencyAlerts)
	wpa.Register(BACKUP_SQLITE_DB_HANDLER, backupSqliteDb)
}

func enqueueJobs(wpa *work.WorkerPoolAdapter) {
	if !sqliteBackupEnabled() {
		return
	}

	err := wpa.PeriodicallyPerform(serverConfig.Google.Storage.SqliteBackupSchedule, work.JobParams{
		Name:    BACKUP_SQLITE_DB_HANDLER,
		Handler: BACKUP_SQLITE_DB_HANDLER,
		Unique:  true,
		Args:    map[string]interface{}{},
	})
	if err != nil {
		logg.Errorf("scheduling sqlite backup failed: %v", err)
	}
}
