package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrMissingCredential indicates no API key could be resolved from the
// environment or the fallback token file. This is a blocking
// configuration error, not a retryable one.
var ErrMissingCredential = errors.New("missing API credential")

// DefaultTokenFile is where the hosting platform drops a JSON token
// object with an access_token field.
const DefaultTokenFile = "/tmp/jwt"

// ResolveCredential picks the bearer token used for all outbound API
// calls. Precedence: explicit key, legacy key, then the access_token
// field of the fallback token file. Resolution happens once at startup
// and the result is reused for the process lifetime.
func ResolveCredential(apiKey, legacyKey, tokenFile string) (string, error) {
	if apiKey != "" {
		return apiKey, nil
	}
	if legacyKey != "" {
		return legacyKey, nil
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("%w: set API_KEY or provide %s", ErrMissingCredential, tokenFile)
	}

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(data, &token); err != nil || token.AccessToken == "" {
		return "", fmt.Errorf("%w: %s has no usable access_token", ErrMissingCredential, tokenFile)
	}

	return token.AccessToken, nil
}
