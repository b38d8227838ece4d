// Copyright (c) 2026 Portier. All rights reserved.
// Author: j.verhulst.dev@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jverhulst/portier/internal/platform/sec"
)

/*
TestPasswordHashing round-trips a password through bcrypt and checks the
empty-hash rule for OAuth-only accounts.
*/
func TestPasswordHashing(t *testing.T) {
	hash, err := sec.HashPassword("Sup3r$ecret")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, sec.CheckPasswordHash("Sup3r$ecret", hash))
	assert.False(t, sec.CheckPasswordHash("wrong", hash))

	// Accounts without a password (OAuth-only) never match anything.
	assert.False(t, sec.CheckPasswordHash("", ""))
	assert.False(t, sec.CheckPasswordHash("Sup3r$ecret", ""))
}

/*
TestGenerateSecureToken checks length and uniqueness of generated tokens.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.Len(t, first, 64, "hex doubles the byte length")

	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

/*
TestMailTokenService covers signing, verification, purpose binding, expiry,
and tamper rejection.
*/
func TestMailTokenService(t *testing.T) {
	service, err := sec.NewMailTokenService("unit-test-secret", "portier-test")
	require.NoError(t, err)

	t.Run("round_trip", func(t *testing.T) {
		token, err := service.Generate("user-1", sec.PurposeVerifyEmail, time.Hour)
		require.NoError(t, err)

		subject, err := service.Verify(token, sec.PurposeVerifyEmail)
		require.NoError(t, err)
		assert.Equal(t, "user-1", subject)
	})

	t.Run("purpose_mismatch", func(t *testing.T) {
		token, err := service.Generate("user-1", "other_purpose", time.Hour)
		require.NoError(t, err)

		_, err = service.Verify(token, sec.PurposeVerifyEmail)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := service.Generate("user-1", sec.PurposeVerifyEmail, -time.Minute)
		require.NoError(t, err)

		_, err = service.Verify(token, sec.PurposeVerifyEmail)
		assert.Error(t, err)
	})

	t.Run("wrong_secret", func(t *testing.T) {
		other, err := sec.NewMailTokenService("different-secret", "portier-test")
		require.NoError(t, err)

		token, err := other.Generate("user-1", sec.PurposeVerifyEmail, time.Hour)
		require.NoError(t, err)

		_, err = service.Verify(token, sec.PurposeVerifyEmail)
		assert.Error(t, err)
	})

	t.Run("empty_secret_rejected", func(t *testing.T) {
		_, err := sec.NewMailTokenService("", "portier-test")
		assert.Error(t, err)
	})
}
