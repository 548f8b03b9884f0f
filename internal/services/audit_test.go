package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePayloadStripsSecrets(t *testing.T) {
	payload := map[string]interface{}{
		"username":      "ivanov",
		"password":      "secret",
		"password_hash": "$2a$10$abc",
		"role":          "Operator",
	}

	sanitized, ok := sanitizePayload(payload).(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "ivanov", sanitized["username"])
	assert.Equal(t, "Operator", sanitized["role"])
	assert.NotContains(t, sanitized, "password")
	assert.NotContains(t, sanitized, "password_hash")
}

func TestSanitizePayloadStructInput(t *testing.T) {
	payload := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: "petrov", Password: "secret"}

	sanitized, ok := sanitizePayload(payload).(map[string]interface{})
	require.True(t, ok)

	assert.Equal(t, "petrov", sanitized["username"])
	assert.NotContains(t, sanitized, "password")
}
