package auth

import (
	"context"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/shortssprint/shortssprint/internal/api"
)

// GoogleVerifier validates Google ID tokens and enforces the
// organization's email domain allowlist.
type GoogleVerifier struct {
	ClientID       string
	AllowedDomains []string

	// validate is swapped in tests; production uses idtoken.Validate.
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogleVerifier(clientID string, allowedDomains []string) *GoogleVerifier {
	return &GoogleVerifier{
		ClientID:       clientID,
		AllowedDomains: allowedDomains,
		validate:       idtoken.Validate,
	}
}

// Verify checks the ID token's signature, audience, issuer and email
// claims, then applies the domain allowlist. Returns the verified
// identity with the username derived from the email's local part.
func (g *GoogleVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	if g.ClientID == "" {
		return Identity{}, api.E(api.KindServiceUnavailable, "google sign-in not configured")
	}

	payload, err := g.validate(ctx, token, g.ClientID)
	if err != nil {
		return Identity{}, api.Errorf(api.KindAuthFailure, "invalid google token: %v", err)
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return Identity{}, api.Errorf(api.KindAuthFailure, "unexpected token issuer %q", payload.Issuer)
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return Identity{}, api.E(api.KindAuthFailure, "token carries no email claim")
	}
	if verified, _ := payload.Claims["email_verified"].(bool); !verified {
		return Identity{}, api.E(api.KindAuthFailure, "email address not verified by google")
	}
	if !g.DomainAllowed(email) {
		return Identity{}, api.Errorf(api.KindAuthFailure, "email domain not authorized for %s", email)
	}

	username := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		username = email[:i]
	}
	if name, _ := payload.Claims["name"].(string); name != "" {
		username = name
	}
	return Identity{Username: username, Email: email}, nil
}

// DomainAllowed reports whether the email's domain is on the allowlist.
// An empty allowlist admits nobody.
func (g *GoogleVerifier) DomainAllowed(email string) bool {
	i := strings.LastIndexByte(email, '@')
	if i < 0 || i == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[i+1:])
	for _, allowed := range g.AllowedDomains {
		if domain == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}
