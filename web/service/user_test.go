package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassword(t *testing.T) {
	setupTestDB(t)
	s := UserService{}

	_, err := s.CreateUser("alice", "s3cret!", "Alice Example", "alice@example.com")
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		user, err := s.CheckPassword("alice", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "Alice Example", user.DisplayName)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.CheckPassword("alice", "not-the-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		_, err := s.CheckPassword("mallory", "s3cret!")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestInactiveUserCannotAuthenticate(t *testing.T) {
	setupTestDB(t)
	s := UserService{}

	_, err := s.CreateUser("bob", "hunter2", "Bob", "")
	require.NoError(t, err)
	require.NoError(t, s.SetActive("bob", false))

	_, err = s.CheckPassword("bob", "hunter2")
	assert.ErrorIs(t, err, ErrInactiveAccount)

	require.NoError(t, s.SetActive("bob", true))
	_, err = s.CheckPassword("bob", "hunter2")
	assert.NoError(t, err)
}

func TestCreateUserDuplicate(t *testing.T) {
	setupTestDB(t)
	s := UserService{}

	_, err := s.CreateUser("carol", "pw1", "Carol", "")
	require.NoError(t, err)

	_, err = s.CreateUser("carol", "pw2", "Carol Again", "")
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestResetPassword(t *testing.T) {
	setupTestDB(t)
	s := UserService{}

	_, err := s.CreateUser("dave", "old-password", "Dave", "")
	require.NoError(t, err)

	before, err := s.GetUser("dave")
	require.NoError(t, err)

	require.NoError(t, s.ResetPassword("dave", "new-password"))

	_, err = s.CheckPassword("dave", "old-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.CheckPassword("dave", "new-password")
	assert.NoError(t, err)

	after, err := s.GetUser("dave")
	require.NoError(t, err)
	assert.NotEqual(t, before.PasswordHash, after.PasswordHash)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
}

func TestResetPasswordUnknownUser(t *testing.T) {
	setupTestDB(t)
	s := UserService{}

	err := s.ResetPassword("nobody", "pw")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserRemovesTokens(t *testing.T) {
	setupTestDB(t)
	users := UserService{}
	tokens := TokenService{}

	_, err := users.CreateUser("erin", "pw", "Erin", "")
	require.NoError(t, err)
	_, _, err = tokens.Issue("erin", "ci", 30)
	require.NoError(t, err)

	require.NoError(t, users.DeleteUser("erin"))

	_, err = users.GetUser("erin")
	assert.ErrorIs(t, err, ErrUserNotFound)
	list, err := tokens.ListTokens("erin")
	require.NoError(t, err)
	assert.Empty(t, list)
}
