package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devilbiswajit/VideoStream/internal/domain/entities"
)

func testUser() *entities.User {
	user := entities.NewUser("ana", "ana@x.com", "Ana Lee", "Secret123")
	user.ID = primitive.NewObjectID()
	return user
}

func TestGeneratePairAndVerify(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	user := testUser()

	pair, err := svc.GeneratePair(user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	accessID, err := svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), accessID)

	refreshID, err := svc.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), refreshID)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.VerifyRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", -1*time.Minute, -1*time.Minute)
	pair, err := svc.GeneratePair(testUser())
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.VerifyRefreshToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	verifier := NewJWTService("other-access", "other-refresh", 15*time.Minute, 240*time.Hour)

	pair, err := issuer.GeneratePair(testUser())
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewJWTService("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour)
	_, err := svc.VerifyAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
