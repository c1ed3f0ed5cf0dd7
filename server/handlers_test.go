package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"github.com/safeher/safeher/server/auth/key"
	"github.com/safeher/safeher/server/models"
	"github.com/safeher/safeher/server/work"
	"github.com/safeher/safeher/shared"
	"github.com/stretchr/testify/assert"
)

func setupServerTest(t *testing.T) *mux.Router {
	t.Helper()

	models.InitializeTestDb()

	validate = validator.New()
	assert.Nil(t, RegisterValidators(validate))

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.Nil(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(privateKey)
	assert.Nil(t, err)

	keyPair, err := key.NewKeyPairFromRSAPrivateKeyPem(
		pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	assert.Nil(t, err)
	authKeyPair = keyPair

	serverConfig = &shared.ServerConfig{
		SafeHer: shared.SafeHerConfig{TokenExpirySecs: 3600},
	}

	// The pool is never started in handler tests - enqueued jobs stay queued
	workerPool = work.NewWorkerAdapter("UTC")

	return newRouter(1000)
}

func doRequest(router *mux.Router, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	reqBody := bytes.NewBuffer(nil)
	if body != nil {
		json.NewEncoder(reqBody).Encode(body)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func registerTestAccount(t *testing.T, router *mux.Router, email string) authResponse {
	t.Helper()

	recorder := doRequest(router, "POST", "/register", "", map[string]interface{}{
		"name":     "Asha Rao",
		"email":    email,
		"phone":    "+14155550101",
		"password": "super-secret",
	})
	assert.Equal(t, http.StatusCreated, recorder.Code)

	response := authResponse{}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	return response
}

func TestRegisterEndpoint(t *testing.T) {
	router := setupServerTest(t)

	response := registerTestAccount(t, router, "asha@example.com")
	assert.Equal(t, "asha@example.com", response.User.Email)
	assert.Empty(t, response.User.Password, "The password hash must never leave the server")

	// Same email again
	recorder := doRequest(router, "POST", "/register", "", map[string]interface{}{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"phone":    "+14155550101",
		"password": "super-secret",
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Email already registered")
}

func TestRegisterEndpointValidation(t *testing.T) {
	router := setupServerTest(t)

	recorder := doRequest(router, "POST", "/register", "", map[string]interface{}{
		"name":     "Asha Rao",
		"email":    "asha@example.com",
		"phone":    "+14155550101",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router := setupServerTest(t)
	registerTestAccount(t, router, "asha@example.com")

	recorder := doRequest(router, "POST", "/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Invalid email or password")

	recorder = doRequest(router, "POST", "/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "super-secret",
	})
	assert.Equal(t, http.StatusOK, recorder.Code)

	response := authResponse{}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Token)
	assert.NotNil(t, response.User.LastLogin, "Logins are recorded")
}

func TestValidateTokenEndpoint(t *testing.T) {
	router := setupServerTest(t)
	account := registerTestAccount(t, router, "asha@example.com")

	recorder := doRequest(router, "GET", "/validate-token", account.Token, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"valid":true`)

	recorder = doRequest(router, "GET", "/validate-token", "not-a-real-token", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doRequest(router, "GET", "/validate-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "no token provided")
}

func TestContactsEndpointScoping(t *testing.T) {
	router := setupServerTest(t)
	asha := registerTestAccount(t, router, "asha@example.com")
	priya := registerTestAccount(t, router, "priya@example.com")

	recorder := doRequest(router, "POST", "/contacts", asha.Token, map[string]interface{}{
		"name":       "Mom",
		"phone":      "+15551234567",
		"is_primary": true,
	})
	assert.Equal(t, http.StatusCreated, recorder.Code)

	created := models.Contact{}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)

	// Another account can neither see nor delete it
	recorder = doRequest(router, "GET", "/contacts", priya.Token, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]\n", recorder.Body.String())

	recorder = doRequest(router, "DELETE", fmt.Sprintf("/contacts/%v", created.ID), priya.Token, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// The owner can
	recorder = doRequest(router, "DELETE", fmt.Sprintf("/contacts/%v", created.ID), asha.Token, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestContactsRequireAuth(t *testing.T) {
	router := setupServerTest(t)

	recorder := doRequest(router, "GET", "/contacts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestEmergencyEndpoint(t *testing.T) {
	router := setupServerTest(t)
	account := registerTestAccount(t, router, "asha@example.com")

	recorder := doRequest(router, "POST", "/emergency", account.Token, map[string]float64{
		"latitude":  12.9716,
		"longitude": 77.5946,
	})
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Emergency alert sent to contacts")

	// The alert is recorded & an sms fanout job queued for the pool
	alert, err := models.FindAlert(1)
	assert.Nil(t, err)
	assert.Equal(t, models.PENDING_ALERT, alert.Status)
	assert.Equal(t, 12.9716, alert.Latitude)

	job, err := models.FindJobBy("handler", SEND_EMERGENCY_ALERTS_HANDLER)
	assert.Nil(t, err)
	assert.Equal(t, models.ENQUEUED_JOB, job.JobStatus.Name)
}

func TestEmergencyEndpointWithoutBody(t *testing.T) {
	router := setupServerTest(t)
	account := registerTestAccount(t, router, "asha@example.com")

	// A distress call with no coordinates still raises the alert
	recorder := doRequest(router, "POST", "/emergency", account.Token, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Emergency alert sent to contacts")

	alert, err := models.FindAlert(1)
	assert.Nil(t, err)
	assert.Equal(t, models.PENDING_ALERT, alert.Status)
	assert.Zero(t, alert.Latitude)
}

func TestSafetyTipsEndpoint(t *testing.T) {
	router := setupServerTest(t)

	recorder := doRequest(router, "GET", "/safety-tips", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	tips := []models.SafetyTip{}
	assert.Nil(t, json.Unmarshal(recorder.Body.Bytes(), &tips))
	assert.Len(t, tips, 3)
}

func TestJWKSEndpoint(t *testing.T) {
	router := setupServerTest(t)

	recorder := doRequest(router, "GET", "/.well-known/jwks.json", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "safeher-key-id")
}
