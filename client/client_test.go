package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBearerTokenInjection(t *testing.T) {
	stub := NewStubAPI()
	defer stub.Close()

	apiClient := NewClient(stub.URL(), time.Second, func() string { return "my-token" })

	ok := apiClient.ValidateToken(context.Background())
	assert.True(t, ok)
	assert.Equal(t, []string{"Bearer my-token"}, stub.SeenAuthHeaders,
		"Every request should carry the stored token as a bearer header")
}

func TestNoAuthHeaderWithoutToken(t *testing.T) {
	stub := NewStubAPI()
	defer stub.Close()

	apiClient := NewClient(stub.URL(), time.Second, nil)
	apiClient.SafetyTips(context.Background())

	assert.Equal(t, []string{""}, stub.SeenAuthHeaders)
}

func TestLoginSurfacesServerMessage(t *testing.T) {
	stub := NewStubAPI()
	defer stub.Close()
	stub.LoginError = "Invalid email or password"

	apiClient := NewClient(stub.URL(), time.Second, nil)

	_, err := apiClient.Login(context.Background(), LoginParams{Email: "a@b.com", Password: "nope"})
	assert.Error(t, err)

	apiErr, ok := err.(*APIError)
	assert.True(t, ok, "Expected an *APIError")
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func TestValidateTokenFalseOnUnreachableServer(t *testing.T) {
	stub := NewStubAPI()
	stub.Close() // server is gone

	apiClient := NewClient(stub.URL(), time.Second, func() string { return "token" })

	assert.False(t, apiClient.ValidateToken(context.Background()),
		"A transport error should read as 'invalid token', never as 'valid'")
}

func TestTriggerEmergencyReturnsAck(t *testing.T) {
	stub := NewStubAPI()
	defer stub.Close()

	apiClient := NewClient(stub.URL(), time.Second, func() string { return "token" })

	ack, err := apiClient.TriggerEmergency(context.Background(), 12.9, 77.6)
	assert.Nil(t, err)
	assert.Equal(t, "Emergency alert sent to contacts", ack)
}

func TestSafetyTipsDegradeToEmptyList(t *testing.T) {
	stub := NewStubAPI()
	stub.Close()

	apiClient := NewClient(stub.URL(), time.Second, nil)

	tips := apiClient.SafetyTips(context.Background())
	assert.NotNil(t, tips)
	assert.Empty(t, tips, "Tips should degrade to an empty list, not an error")
}

func TestContactsRoundTrip(t *testing.T) {
	stub := NewStubAPI()
	defer stub.Close()

	apiClient := NewClient(stub.URL(), time.Second, func() string { return "token" })
	ctx := context.Background()

	created, err := apiClient.AddContact(ctx, Contact{Name: "Mom", Phone: "+15551234567", IsPrimary: true})
	assert.Nil(t, err)
	assert.NotZero(t, created.ID, "Contact ids are server-issued")

	contacts, err := apiClient.ListContacts(ctx)
	assert.Nil(t, err)
	assert.Len(t, contacts, 1)

	created.Relationship = "mother"
	updated, err := apiClient.UpdateContact(ctx, created.ID, *created)
	assert.Nil(t, err)
	assert.Equal(t, "mother", updated.Relationship)

	err = apiClient.DeleteContact(ctx, created.ID)
	assert.Nil(t, err)

	contacts, err = apiClient.ListContacts(ctx)
	assert.Nil(t, err)
	assert.Empty(t, contacts)
}
