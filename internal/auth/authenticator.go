package auth

import (
	"context"

	"github.com/toodl/toodl/internal/models"
)

// Authenticator abstracts the credential scheme so the HTTP layer does not
// care whether accounts are backed by passwords, OAuth tokens or passkeys.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credentials and returns the user on success.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks that the credential meets the scheme's
	// minimum requirements before any account is touched.
	ValidateCredential(credential string) error
}
