// Package auth delivers an already-authenticated caller identity to the
// gateway. The gateway core itself never authenticates anyone; it only
// consumes the Identity this package puts on the request context.
package auth

import (
	"context"
	"fmt"
	"strings"
)

// Identity is the actor recorded against every audit entry.
type Identity struct {
	UserID string
	Email  string
}

type APIKeyValidator interface {
	Validate(ctx context.Context, apiKey string) (Identity, bool)
}

// StaticAPIKeyValidator maps fixed API keys to identities, parsed from a
// spec of the form "key:user_id:email[,key:user_id:email...]".
type StaticAPIKeyValidator struct {
	keys map[string]Identity
}

func NewStaticAPIKeyValidator(spec string) (*StaticAPIKeyValidator, error) {
	validator := &StaticAPIKeyValidator{keys: map[string]Identity{}}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return validator, nil
	}

	entries := strings.Split(spec, ",")
	for _, entry := range entries {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid static key entry %q: expected key:user_id:email", entry)
		}
		key := strings.TrimSpace(parts[0])
		userID := strings.TrimSpace(parts[1])
		email := strings.TrimSpace(parts[2])
		if key == "" || userID == "" {
			return nil, fmt.Errorf("invalid static key entry %q: empty key/user id", entry)
		}
		validator.keys[key] = Identity{UserID: userID, Email: email}
	}

	return validator, nil
}

func (v *StaticAPIKeyValidator) Validate(_ context.Context, apiKey string) (Identity, bool) {
	identity, ok := v.keys[apiKey]
	return identity, ok
}
