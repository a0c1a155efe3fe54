package auth

import (
	"testing"
	"time"

	"agora-express/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndVerify(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	user := &model.User{
		ID:   uuid.New(),
		Name: "Alice",
		Role: model.RoleAdmin,
	}

	token, err := manager.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestTokenManager_Verify_WrongSecret(t *testing.T) {
	issuer := NewTokenManager("issuer-secret", time.Hour)
	verifier := NewTokenManager("other-secret", time.Hour)

	token, err := issuer.Issue(&model.User{ID: uuid.New(), Role: model.RoleUser})
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret", -time.Minute)

	token, err := manager.Issue(&model.User{ID: uuid.New(), Role: model.RoleUser})
	require.NoError(t, err)

	claims, err := manager.Verify(token)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestTokenManager_Verify_Garbage(t *testing.T) {
	manager := NewTokenManager("test-secret", time.Hour)

	claims, err := manager.Verify("not.a.token")
	require.Error(t, err)
	assert.Nil(t, claims)
}
