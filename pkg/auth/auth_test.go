package auth

import (
	"testing"
	"time"

	"github.com/arnavshah/weekly-score-api/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("test-secret")

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestToken_RoundTrip(t *testing.T) {
	user := &database.User{ID: 42, Username: "ana", Role: database.RoleAdmin}

	token, err := CreateToken(secret, user)
	require.NoError(t, err)

	claims, err := VerifyToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ana", claims.Username)
	assert.Equal(t, database.RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestToken_Rejected(t *testing.T) {
	user := &database.User{ID: 1, Username: "ana", Role: database.RoleMember}

	token, err := CreateToken(secret, user)
	require.NoError(t, err)
	_, err = VerifyToken([]byte("other-secret"), token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)
	_, err = VerifyToken(secret, signed)
	assert.Error(t, err)

	_, err = VerifyToken(secret, "not-a-token")
	assert.Error(t, err)

	_, err = CreateToken(nil, user)
	assert.Error(t, err)
}

func TestHMACKey(t *testing.T) {
	key := GenerateHMACKey("master", "leaderboard.bot")

	name, err := VerifyHMACKey("master", key)
	require.NoError(t, err)
	assert.Equal(t, "leaderboard.bot", name)

	_, err = VerifyHMACKey("other", key)
	assert.Error(t, err)
	_, err = VerifyHMACKey("master", "no-signature")
	assert.Error(t, err)
	_, err = VerifyHMACKey("master", "trailing.")
	assert.Error(t, err)
	_, err = VerifyHMACKey("", key)
	assert.Error(t, err)
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := database.InitDB("", ":memory:")
	require.NoError(t, err)

	require.NoError(t, EnsureAdminExists(db, "root", "pw123456"))
	require.NoError(t, EnsureAdminExists(db, "second", "pw123456"))

	var users []database.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root", users[0].Username)
	assert.True(t, users[0].IsAdmin())
	assert.True(t, CheckPasswordHash("pw123456", users[0].PasswordHash))
}

func TestTouchAPIKey(t *testing.T) {
	db, err := database.InitDB("", ":memory:")
	require.NoError(t, err)

	key := GenerateHMACKey("master", "bot")
	first, err := TouchAPIKey(db, key, "bot")
	require.NoError(t, err)
	require.NotNil(t, first.LastUsed)
	assert.Equal(t, DefaultRateLimit, first.RateLimit)

	second, err := TouchAPIKey(db, key, "bot")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, "bot...", KeyPreview(key)[:6])
	assert.Equal(t, "****", KeyPreview("short"))
}

func TestTouchAPIKey_KeepsCustomLimit(t *testing.T) {
	db, err := database.InitDB("", ":memory:")
	require.NoError(t, err)

	key := GenerateHMACKey("master", "ops")
	require.NoError(t, db.Create(&database.APIKey{
		Key:        key,
		Name:       "ops",
		KeyPreview: KeyPreview(key),
		RateLimit:  5,
	}).Error)

	got, err := TouchAPIKey(db, key, "ops")
	require.NoError(t, err)
	assert.Equal(t, 5, got.RateLimit)
	assert.NotNil(t, got.LastUsed)

	var count int64
	require.NoError(t, db.Model(&database.APIKey{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
