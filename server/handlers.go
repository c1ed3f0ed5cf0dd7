package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/safeher/safeher/server/auth"
	"github.com/safeher/safeher/server/auth/key"
	"github.com/safeher/safeher/server/models"
	"github.com/safeher/safeher/server/work"
	"gorm.io/gorm"
)

type deviceParams struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	OS   string `json:"os"`
}

type registerParams struct {
	Name     string       `json:"name" validate:"required"`
	Email    string       `json:"email" validate:"required,email"`
	Phone    string       `json:"phone" validate:"required,phone"`
	Password string       `json:"password" validate:"required,password"`
	Device   deviceParams `json:"device"`
}

type loginParams struct {
	Email    string       `json:"email" validate:"required,email"`
	Password string       `json:"password" validate:"required"`
	Device   deviceParams `json:"device"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func registerUser(rw http.ResponseWriter, r *http.Request) {
	params := registerParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(rw, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(params); err != nil {
		writeError(rw, strings.Split(err.Error(), "\n")[0], http.StatusBadRequest)
		return
	}

	taken, err := models.UserEmailTaken(params.Email)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	if taken {
		writeError(rw, "Email already registered", http.StatusConflict)
		return
	}

	user := models.User{
		Name:     params.Name,
		Email:    params.Email,
		Phone:    params.Phone,
		Password: params.Password,
	}
	if err := models.CreateUser(&user); err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	registerDevice(&user, params.Device)

	token, err := issueToken(&user)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	user.Password = ""
	writeResponse(rw, authResponse{Token: token, User: &user}, http.StatusCreated)
}

func logIn(rw http.ResponseWriter, r *http.Request) {
	params := loginParams{}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(rw, "invalid request body", http.StatusBadRequest)
		return
	}

	passwordHash, err := models.FindUserPassword(params.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	if !auth.CheckPasswordHash(params.Password, passwordHash) {
		writeError(rw, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	user, err := models.FindUserBy("email", params.Email)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := user.RecordLogin(); err != nil {
		logg.Errorf("recording login for user %v failed: %v", user.ID, err)
	}
	registerDevice(user, params.Device)

	token, err := issueToken(user)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, authResponse{Token: token, User: user}, http.StatusOK)
}

func validateToken(rw http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(rw, "invalid token provided", http.StatusUnauthorized)
		return
	}

	writeResponse(rw, map[string]interface{}{"valid": true, "user": user}, http.StatusOK)
}

func listContacts(rw http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := user.LoadContacts(); err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	contacts := user.Contacts
	if contacts == nil {
		contacts = []models.Contact{}
	}
	writeResponse(rw, contacts, http.StatusOK)
}

func createContact(rw http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	contact := models.Contact{}
	if err := json.NewDecoder(r.Body).Decode(&contact); err != nil {
		writeError(rw, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(contact); err != nil {
		writeError(rw, strings.Split(err.Error(), "\n")[0], http.StatusBadRequest)
		return
	}

	if err := user.AddContact(&contact); err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, contact, http.StatusCreated)
}

func updateContact(rw http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	data := make(map[string]interface{})
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(rw, "invalid request body", http.StatusBadRequest)
		return
	}

	removeUnknownFields(data, map[string]bool{
		"name":         true,
		"phone":        true,
		"email":        true,
		"relationship": true,
		"is_primary":   true,
	})
	if len(data) == 0 {
		writeError(rw, "valid fields required", http.StatusBadRequest)
		return
	}

	contactID := mux.Vars(r)["id"]
	if err := user.UpdateContact(contactID, data); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(rw, "Contact not found", http.StatusNotFound)
			return
		}
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	contact, err := user.FindContact(contactID)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, contact, http.StatusOK)
}

func deleteContact(rw http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := user.DeleteContact(mux.Vars(r)["id"]); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(rw, "Contact not found", http.StatusNotFound)
			return
		}
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, map[string]string{"message": "Contact deleted"}, http.StatusOK)
}

func triggerEmergency(rw http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	coords := struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}{}
	// A missing or malformed body still triggers an alert - the client may
	// not have been able to read the device location.
	json.NewDecoder(r.Body).Decode(&coords)

	alert, err := models.CreateAlert(user.ID, coords.Latitude, coords.Longitude)
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	models.LogSecurityEvent(user.ID, fmt.Sprintf("emergency triggered, alert=%v", alert.ID))

	err = workerPool.Perform(work.JobParams{
		Name:    fmt.Sprintf("%v-%v", SEND_EMERGENCY_ALERTS_HANDLER, alert.ID),
		Handler: SEND_EMERGENCY_ALERTS_HANDLER,
		Args: map[string]interface{}{
			"user_id":  user.ID,
			"alert_id": alert.ID,
		},
	})
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, map[string]string{"message": "Emergency alert sent to contacts"}, http.StatusOK)
}

func safetyTips(rw http.ResponseWriter, r *http.Request) {
	tips, err := models.AllSafetyTips()
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, tips, http.StatusOK)
}

func jwks(rw http.ResponseWriter, r *http.Request) {
	jwk, err := authKeyPair.JWK()
	if err != nil {
		writeError(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	writeResponse(rw, key.ExportJWKAsJWKS(jwk), http.StatusOK)
}

func healthCheck(rw http.ResponseWriter, r *http.Request) {
	writeResponse(rw, map[string]string{"status": "ok"}, http.StatusOK)
}
