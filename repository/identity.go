package repository

import (
	"context"

	"github.com/fastygo/dealerhub/domain"
)

// IdentityRepository resolves identities together with their dealer profile.
type IdentityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
}

// AccessStateRepository reads only the fields that gate authorization.
type AccessStateRepository interface {
	GetAccessState(ctx context.Context, id string) (domain.AccessState, error)
}

// CredentialRepository looks up stored password hashes by username.
type CredentialRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Credential, error)
}
