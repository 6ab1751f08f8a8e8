package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// HMACService signs outgoing webhook payloads. Schedules without their
// own secret fall back to the configured default.
type HMACService struct {
	defaultSecret string
}

func NewHMACService(defaultSecret string) *HMACService {
	return &HMACService{
		defaultSecret: defaultSecret,
	}
}

// SignPayload signs a webhook payload using HMAC-SHA256
func (s *HMACService) SignPayload(payload []byte, secret string) string {
	if secret == "" {
		secret = s.defaultSecret
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature validates a webhook signature
func (s *HMACService) ValidateSignature(payload []byte, signature string, secret string) bool {
	expected := s.SignPayload(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
