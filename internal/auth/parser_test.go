package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops-hk/itpm-service/internal/model"
)

const testSecret = "test-secret-at-least-32-chars-long"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParser_Parse(t *testing.T) {
	parser := NewParser(testSecret)
	userID := uuid.New()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "pm@example.com",
		"name":  "王小明",
		"role":  "ProjectManager",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	principal, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	assert.Equal(t, "pm@example.com", principal.Email)
	assert.Equal(t, "王小明", principal.Name)
	assert.Equal(t, model.RoleProjectManager, principal.Role)
}

func TestParser_Parse_WrongSecret(t *testing.T) {
	parser := NewParser(testSecret)

	token := signToken(t, "some-other-secret-32-chars-long!!", jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "Admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, err := parser.Parse(token)
	require.Error(t, err)
}

func TestParser_Parse_Expired(t *testing.T) {
	parser := NewParser(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "Admin",
		"exp":  time.Now().Add(-time.Hour).Unix(),
	})

	_, err := parser.Parse(token)
	require.Error(t, err)
}

func TestParser_Parse_UnknownRole(t *testing.T) {
	parser := NewParser(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": "Superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, err := parser.Parse(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown role")
}

func TestParser_Parse_BadSubject(t *testing.T) {
	parser := NewParser(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "not-a-uuid",
		"role": "Admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	_, err := parser.Parse(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid subject")
}

func TestParser_Parse_Garbage(t *testing.T) {
	parser := NewParser(testSecret)

	_, err := parser.Parse("not.a.token")
	require.Error(t, err)
}
