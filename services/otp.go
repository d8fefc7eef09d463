package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPValidity is how long a one-time verification code stays usable.
const OTPValidity = 10 * time.Minute

// GenerateCode returns a 6-digit numeric one-time code drawn uniformly from
// 100000-999999. The range deliberately excludes leading zeros so codes
// survive transports and UIs that strip them.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
