package security

import "time"

// Test issuer and audience used by NewTestTokenProvider.
const (
	TestIssuer   = "test-issuer"
	TestAudience = "test-audience"
)

// NewTestTokenProvider returns a TokenProvider with a fresh P-256 key and a 15 minute TTL.
// For unit tests only.
func NewTestTokenProvider() (*TokenProvider, error) {
	signer, pub, _, err := SigningKeys("", "")
	if err != nil {
		return nil, err
	}
	return NewTokenProvider(signer, pub, TestIssuer, TestAudience, 15*time.Minute), nil
}
