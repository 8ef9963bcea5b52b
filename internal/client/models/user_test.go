package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile_DecodeNumericAndStringIDs(t *testing.T) {
	var users []UserProfile
	payload := `[
		{"id": 7, "name": "Ada Lovelace", "email": "ada@example.com", "role": "ADMIN", "emailVerified": true},
		{"id": "b-2", "firstName": "Bob", "lastName": "Stone", "email": "bob@example.com", "role": "USER"},
		{"id": null, "email": "nobody@example.com"}
	]`
	require.NoError(t, json.Unmarshal([]byte(payload), &users))

	want := []UserProfile{
		{ID: "7", Name: "Ada Lovelace", Email: "ada@example.com", Role: RoleAdmin, EmailVerified: true},
		{ID: "b-2", FirstName: "Bob", LastName: "Stone", Email: "bob@example.com", Role: RoleUser},
		{Email: "nobody@example.com"},
	}
	assert.Empty(t, cmp.Diff(want, users))
}

func TestUserID_RejectsObjects(t *testing.T) {
	var p UserProfile
	require.Error(t, json.Unmarshal([]byte(`{"id": {"x": 1}}`), &p))
}

func TestUserProfile_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada", UserProfile{Name: "Ada", FirstName: "X"}.DisplayName())
	assert.Equal(t, "Bob Stone", UserProfile{FirstName: "Bob", LastName: "Stone"}.DisplayName())
	assert.Equal(t, "c@example.com", UserProfile{Email: "c@example.com"}.DisplayName())
}

func TestUserProfile_VerificationStatus(t *testing.T) {
	assert.Equal(t, "Verified", UserProfile{EmailVerified: true}.VerificationStatus())
	assert.Equal(t, "Not Verified", UserProfile{}.VerificationStatus())
}

func TestLoginResponse_Requires2FAOptional(t *testing.T) {
	var r LoginResponse
	require.NoError(t, json.Unmarshal([]byte(`{"accessToken":"T1","refreshToken":"T2"}`), &r))
	assert.Equal(t, LoginResponse{AccessToken: "T1", RefreshToken: "T2"}, r)
}

func TestComputeStats(t *testing.T) {
	users := []UserProfile{
		{Role: RoleAdmin, EmailVerified: true},
		{Role: RoleUser, EmailVerified: true},
		{Role: RoleUser},
	}
	assert.Equal(t, UserStats{Total: 3, Verified: 2, Admins: 1, Regular: 2}, ComputeStats(users))
	assert.Equal(t, UserStats{}, ComputeStats(nil))
}
