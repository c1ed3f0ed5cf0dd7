package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/gorilla/mux"
)

// StubAPI is an in-process stand-in for the safeher server, used by
// client & cmd tests. Fields can be tweaked per test to simulate the
// different server behaviours.
type StubAPI struct {
	Server *httptest.Server

	AuthToken    string
	AuthUser     User
	TokenValid   bool
	LoginError   string
	TriggerAck   string
	TriggerError string
	Tips         []SafetyTip
	Contacts     []Contact

	// Requests seen by the stub, newest last
	SeenAuthHeaders []string
	nextContactID   uint
}

func NewStubAPI() *StubAPI {
	stub := &StubAPI{
		AuthToken:     "stub-token",
		AuthUser:      User{ID: 1, Name: "Asha", Email: "asha@example.com", Phone: "+14155550101"},
		TokenValid:    true,
		TriggerAck:    "Emergency alert sent to contacts",
		Tips:          []SafetyTip{{ID: 1, Title: "Trust your instincts", Content: "Leave if it feels unsafe."}},
		nextContactID: 1,
	}

	router := mux.NewRouter()
	router.HandleFunc("/register", stub.auth).Methods("POST")
	router.HandleFunc("/login", stub.auth).Methods("POST")
	router.HandleFunc("/validate-token", stub.validateToken).Methods("GET")
	router.HandleFunc("/contacts", stub.listContacts).Methods("GET")
	router.HandleFunc("/contacts", stub.addContact).Methods("POST")
	router.HandleFunc("/contacts/{id}", stub.updateContact).Methods("PUT")
	router.HandleFunc("/contacts/{id}", stub.deleteContact).Methods("DELETE")
	router.HandleFunc("/emergency", stub.emergency).Methods("POST")
	router.HandleFunc("/safety-tips", stub.safetyTips).Methods("GET")

	stub.Server = httptest.NewServer(stub.recordAuthHeader(router))

	return stub
}

func (stub *StubAPI) URL() string {
	return stub.Server.URL
}

func (stub *StubAPI) Close() {
	stub.Server.Close()
}

func (stub *StubAPI) recordAuthHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		stub.SeenAuthHeaders = append(stub.SeenAuthHeaders, r.Header.Get("Authorization"))
		next.ServeHTTP(rw, r)
	})
}

func (stub *StubAPI) auth(rw http.ResponseWriter, r *http.Request) {
	if stub.LoginError != "" {
		rw.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(rw).Encode(map[string]string{"error": stub.LoginError})
		return
	}

	json.NewEncoder(rw).Encode(AuthResponse{Token: stub.AuthToken, User: stub.AuthUser})
}

func (stub *StubAPI) validateToken(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(map[string]interface{}{"valid": stub.TokenValid, "user": stub.AuthUser})
}

func (stub *StubAPI) listContacts(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(stub.Contacts)
}

func (stub *StubAPI) addContact(rw http.ResponseWriter, r *http.Request) {
	contact := Contact{}
	json.NewDecoder(r.Body).Decode(&contact)

	contact.ID = stub.nextContactID
	stub.nextContactID++
	stub.Contacts = append(stub.Contacts, contact)

	rw.WriteHeader(http.StatusCreated)
	json.NewEncoder(rw).Encode(contact)
}

func (stub *StubAPI) updateContact(rw http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	contact := Contact{}
	json.NewDecoder(r.Body).Decode(&contact)
	contact.ID = uint(id)

	for i := range stub.Contacts {
		if stub.Contacts[i].ID == uint(id) {
			stub.Contacts[i] = contact
		}
	}

	json.NewEncoder(rw).Encode(contact)
}

func (stub *StubAPI) deleteContact(rw http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	remaining := []Contact{}
	for _, contact := range stub.Contacts {
		if contact.ID != uint(id) {
			remaining = append(remaining, contact)
		}
	}
	stub.Contacts = remaining

	json.NewEncoder(rw).Encode(map[string]string{"message": "Contact deleted successfully"})
}

func (stub *StubAPI) emergency(rw http.ResponseWriter, r *http.Request) {
	if stub.TriggerError != "" {
		rw.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(rw).Encode(map[string]string{"error": stub.TriggerError})
		return
	}

	json.NewEncoder(rw).Encode(map[string]string{"message": stub.TriggerAck})
}

func (stub *StubAPI) safetyTips(rw http.ResponseWriter, r *http.Request) {
	json.NewEncoder(rw).Encode(stub.Tips)
}
