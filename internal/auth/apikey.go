package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	apiKeyLength        = 32
	webhookSecretLength = 48
	alphabet            = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateAPIKey returns the opaque key a tenant's dashboard authenticates with.
func GenerateAPIKey() (string, error) {
	return randomString(apiKeyLength)
}

// GenerateWebhookSecret returns the shared secret used to sign webhook deliveries.
func GenerateWebhookSecret() (string, error) {
	return randomString(webhookSecretLength)
}

func randomString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	out := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
