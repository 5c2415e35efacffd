package auth

import (
	"github.com/supabase-community/supabase-go"

	appErrors "calibrate-backend/pkg/errors"
)

// TokenVerifier resolves an access token into an authenticated identity.
type TokenVerifier interface {
	VerifyToken(token string) (*Identity, error)
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID string
	Email  string
}

// SupabaseVerifier verifies access tokens against the Supabase auth service.
// Unlike the local JWT validator this catches revoked sessions, at the cost
// of a network round trip per verification.
type SupabaseVerifier struct {
	client *supabase.Client
}

// NewSupabaseVerifier creates a verifier backed by a Supabase project. The
// service role key is required so the backend can look up arbitrary users.
func NewSupabaseVerifier(projectURL, serviceRoleKey string) (*SupabaseVerifier, error) {
	client, err := supabase.NewClient(projectURL, serviceRoleKey, nil)
	if err != nil {
		return nil, appErrors.NewInternalError("failed to create supabase client").WithCause(err)
	}
	return &SupabaseVerifier{client: client}, nil
}

// VerifyToken resolves the token's user via the auth service.
func (v *SupabaseVerifier) VerifyToken(token string) (*Identity, error) {
	// GetUser chained with WithToken takes no context; the client applies it
	// to the underlying HTTP request.
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return nil, appErrors.NewUnauthorizedError("invalid token").WithCause(err)
	}
	return &Identity{
		UserID: user.ID.String(),
		Email:  user.Email,
	}, nil
}

// LocalVerifier verifies tokens with the shared JWT secret, with no network
// dependency. Used when SUPABASE_URL is not configured.
type LocalVerifier struct {
	validator *JWTValidator
}

// NewLocalVerifier creates a verifier around a JWT validator.
func NewLocalVerifier(validator *JWTValidator) *LocalVerifier {
	return &LocalVerifier{validator: validator}
}

// VerifyToken validates the token signature and claims locally.
func (v *LocalVerifier) VerifyToken(token string) (*Identity, error) {
	claims, err := v.validator.Validate(token)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
