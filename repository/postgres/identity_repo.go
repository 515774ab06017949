package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastygo/dealerhub/domain"
	"github.com/fastygo/dealerhub/repository"
)

type identityRepository struct {
	db *sql.DB
}

// NewIdentityRepository returns a Postgres-backed identity lookup that joins
// the optional dealer profile.
func NewIdentityRepository(db *sql.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `
	SELECT u.id::text, u.username, u.email, u.role, u.is_active, u.created_at, u.updated_at,
		d.id::text, d.company_name, d.contact_name, d.phone, d.address, d.status
	FROM users u
	LEFT JOIN dealers d ON d.user_id = u.id
	WHERE u.id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanIdentity(row)
}

// NewAccessStateRepository returns the narrow lookup used to keep cached
// identities current.
func NewAccessStateRepository(db *sql.DB) repository.AccessStateRepository {
	return &identityRepository{db: db}
}

func (r *identityRepository) GetAccessState(ctx context.Context, id string) (domain.AccessState, error) {
	const query = `
	SELECT u.role, u.is_active, d.id::text, d.status
	FROM users u
	LEFT JOIN dealers d ON d.user_id = u.id
	WHERE u.id = $1
	`
	var (
		role        string
		active      bool
		dealerID    sql.NullString
		dealerState sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&role, &active, &dealerID, &dealerState); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AccessState{}, domain.ErrIdentityNotFound
		}
		return domain.AccessState{}, err
	}

	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return domain.AccessState{}, domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("user %s", id), err)
	}
	state := domain.AccessState{Role: parsedRole, Active: active}
	if dealerID.Valid {
		status, err := domain.ParseDealerStatus(dealerState.String)
		if err != nil {
			return domain.AccessState{}, domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("dealer %s", dealerID.String), err)
		}
		state.DealerID = dealerID.String
		state.DealerStatus = status
	}
	return state, nil
}

type credentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository returns a Postgres-backed credential lookup.
func NewCredentialRepository(db *sql.DB) repository.CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	const query = `
	SELECT id::text, username, password_hash
	FROM users
	WHERE username = $1
	`
	var cred domain.Credential
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&cred.IdentityID, &cred.Username, &cred.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

func scanIdentity(row rowScanner) (*domain.Identity, error) {
	var (
		identity domain.Identity
		role     string

		dealerID    sql.NullString
		company     sql.NullString
		contact     sql.NullString
		phone       sql.NullString
		address     sql.NullString
		dealerState sql.NullString
	)

	if err := row.Scan(
		&identity.ID,
		&identity.Username,
		&identity.Email,
		&role,
		&identity.Active,
		&identity.CreatedAt,
		&identity.UpdatedAt,
		&dealerID,
		&company,
		&contact,
		&phone,
		&address,
		&dealerState,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}

	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("user %s", identity.ID), err)
	}
	identity.Role = parsedRole

	if dealerID.Valid {
		status, err := domain.ParseDealerStatus(dealerState.String)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("dealer %s", dealerID.String), err)
		}
		identity.Dealer = &domain.DealerProfile{
			ID:          dealerID.String,
			CompanyName: company.String,
			ContactName: contact.String,
			Phone:       phone.String,
			Address:     nullableString(address),
			Status:      status,
		}
	}

	return &identity, nil
}
