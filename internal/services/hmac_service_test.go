package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHMACService(t *testing.T) {
	service := NewHMACService("default-secret")

	t.Run("Sign Payload with Default Secret", func(t *testing.T) {
		payload := []byte(`{"name": "test"}`)
		signature := service.SignPayload(payload, "")

		// hex-encoded SHA256 is 64 chars
		assert.Len(t, signature, 64)
		assert.True(t, service.ValidateSignature(payload, signature, ""))
	})

	t.Run("Sign Payload with Schedule Secret", func(t *testing.T) {
		payload := []byte(`{"name": "test"}`)
		signature := service.SignPayload(payload, "schedule-secret")

		assert.Len(t, signature, 64)
		assert.True(t, service.ValidateSignature(payload, signature, "schedule-secret"))
		assert.False(t, service.ValidateSignature(payload, signature, ""))
	})

	t.Run("Invalid Signature", func(t *testing.T) {
		payload := []byte(`{"name": "test"}`)
		assert.False(t, service.ValidateSignature(payload, "invalid-signature", ""))
	})

	t.Run("Different Payloads", func(t *testing.T) {
		payload1 := []byte(`{"name": "a"}`)
		payload2 := []byte(`{"name": "b"}`)

		signature1 := service.SignPayload(payload1, "")
		signature2 := service.SignPayload(payload2, "")

		assert.NotEqual(t, signature1, signature2)
		assert.True(t, service.ValidateSignature(payload1, signature1, ""))
		assert.False(t, service.ValidateSignature(payload1, signature2, ""))
	})
}
