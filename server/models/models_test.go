package models

import (
	"testing"

	"github.com/safeher/safeher/server/auth"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func createTestUser(t *testing.T) *User {
	user := User{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "+14155550101",
		Password: "super-secret",
	}
	assert.Nil(t, CreateUser(&user))
	return &user
}

func TestCreateUserHashesPassword(t *testing.T) {
	InitializeTestDb()

	user := createTestUser(t)
	assert.NotEqual(t, "super-secret", user.Password, "The raw password should never be stored")

	passwordHash, err := FindUserPassword("asha@example.com")
	assert.Nil(t, err)
	assert.True(t, auth.CheckPasswordHash("super-secret", passwordHash))
}

func TestUserEmailTaken(t *testing.T) {
	InitializeTestDb()
	createTestUser(t)

	taken, err := UserEmailTaken("asha@example.com")
	assert.Nil(t, err)
	assert.True(t, taken)

	taken, err = UserEmailTaken("someone-else@example.com")
	assert.Nil(t, err)
	assert.False(t, taken)
}

func TestFindUserByOmitsPassword(t *testing.T) {
	InitializeTestDb()
	created := createTestUser(t)

	user, err := FindUserBy("id", created.ID)
	assert.Nil(t, err)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Empty(t, user.Password, "Password hash should not be loaded on regular lookups")
}

func TestContactLifecycle(t *testing.T) {
	InitializeTestDb()
	user := createTestUser(t)

	assert.Nil(t, user.AddContact(&Contact{Name: "Mom", Phone: "+15551234567", IsPrimary: true}))
	assert.Nil(t, user.AddContact(&Contact{Name: "Sam", Phone: "+15557654321"}))

	assert.Nil(t, user.LoadContacts())
	assert.Len(t, user.Contacts, 2)

	primaries, err := user.PrimaryContacts()
	assert.Nil(t, err)
	assert.Len(t, primaries, 1)
	assert.Equal(t, "Mom", primaries[0].Name)

	mom := user.Contacts[0]
	assert.Nil(t, user.UpdateContact(mom.ID, map[string]interface{}{"relationship": "mother"}))
	updated, err := user.FindContact(mom.ID)
	assert.Nil(t, err)
	assert.Equal(t, "mother", updated.Relationship)

	assert.Nil(t, user.DeleteContact(mom.ID))
	assert.ErrorIs(t, user.DeleteContact(mom.ID), gorm.ErrRecordNotFound)
}

func TestContactsAreScopedToTheirUser(t *testing.T) {
	InitializeTestDb()

	user := createTestUser(t)
	other := User{Name: "Priya", Email: "priya@example.com", Phone: "+14155550102", Password: "other-secret"}
	assert.Nil(t, CreateUser(&other))

	assert.Nil(t, user.AddContact(&Contact{Name: "Mom", Phone: "+15551234567"}))
	assert.Nil(t, user.LoadContacts())

	// The other user can neither see nor delete it
	assert.Nil(t, other.LoadContacts())
	assert.Empty(t, other.Contacts)
	assert.ErrorIs(t, other.DeleteContact(user.Contacts[0].ID), gorm.ErrRecordNotFound)
}

func TestAlertStatusTransitions(t *testing.T) {
	InitializeTestDb()
	user := createTestUser(t)

	alert, err := CreateAlert(user.ID, 12.9716, 77.5946)
	assert.Nil(t, err)
	assert.Equal(t, PENDING_ALERT, alert.Status)

	assert.Nil(t, SetAlertStatus(alert.ID, SENT_ALERT))

	found, err := FindAlert(alert.ID)
	assert.Nil(t, err)
	assert.Equal(t, SENT_ALERT, found.Status)
	assert.Equal(t, 12.9716, found.Latitude)
}

func TestSafetyTipsAreSeeded(t *testing.T) {
	InitializeTestDb()

	tips, err := AllSafetyTips()
	assert.Nil(t, err)
	assert.Len(t, tips, 3)
	assert.Equal(t, "Trust your instincts", tips[0].Title)
}
