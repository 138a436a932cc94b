package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	userID, companyID := uuid.New(), uuid.New()

	token, err := svc.GenerateAccessToken(userID, companyID, RoleCompanyAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, companyID, claims.CompanyID)
	assert.Equal(t, RoleCompanyAdmin, claims.Role)
}

func TestValidateAccessTokenRejects(t *testing.T) {
	svc := NewService("test-secret", time.Minute)

	_, err := svc.ValidateAccessToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService("other-secret", time.Minute)
	token, err := other.GenerateAccessToken(uuid.New(), uuid.Nil, RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewService("test-secret", -time.Minute)
	token, err = expired.GenerateAccessToken(uuid.New(), uuid.Nil, RoleAdmin)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
