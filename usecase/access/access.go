package access

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/dealerhub/domain"
	appLogger "github.com/fastygo/dealerhub/pkg/logger"
	"github.com/fastygo/dealerhub/pkg/security"
	"github.com/fastygo/dealerhub/repository"
)

// Kind classifies the outcome of resolving a bearer credential.
type Kind int

const (
	Resolved Kind = iota
	NoCredential
	Invalid
	Inactive
)

func (k Kind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case NoCredential:
		return "no_credential"
	case Invalid:
		return "invalid"
	case Inactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Resolution is the result of Guard.Resolve. Err is set only when the
// identity store failed; Kind is Invalid in that case.
type Resolution struct {
	Kind     Kind
	Identity *domain.Identity
	Reason   string
	Err      error
}

// TokenDecoder verifies a raw access token.
type TokenDecoder interface {
	Decode(raw string) (security.Claims, error)
}

// Guard turns bearer credentials into identities.
type Guard struct {
	identities repository.IdentityRepository
	tokens     TokenDecoder
	logger     *zap.Logger
}

func NewGuard(identities repository.IdentityRepository, tokens TokenDecoder, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{
		identities: identities,
		tokens:     tokens,
		logger:     logger,
	}
}

// Resolve decodes the bearer token, rejects refresh tokens and loads the
// subject. It never returns an identity for anything but Resolved.
func (g *Guard) Resolve(ctx context.Context, bearer string) Resolution {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return Resolution{Kind: NoCredential, Reason: "missing"}
	}

	claims, err := g.tokens.Decode(bearer)
	if err != nil {
		return Resolution{Kind: Invalid, Reason: "token"}
	}
	if claims.Type != "" {
		return Resolution{Kind: Invalid, Reason: "token_type"}
	}
	if claims.Subject == "" {
		return Resolution{Kind: Invalid, Reason: "subject_missing"}
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return Resolution{Kind: Invalid, Reason: "subject_format"}
	}

	identity, err := g.identities.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return Resolution{Kind: Invalid, Reason: "subject_unknown"}
		}
		appLogger.WithRequestID(ctx, g.logger).Error("identity lookup failed", zap.String("subject", claims.Subject), zap.Error(err))
		return Resolution{
			Kind:   Invalid,
			Reason: "store",
			Err:    domain.WrapError(domain.ErrCodeInternal, "identity lookup failed", err),
		}
	}
	if !identity.IsActive() {
		return Resolution{Kind: Inactive, Reason: "inactive"}
	}
	return Resolution{Kind: Resolved, Identity: identity}
}

// Authenticate requires a resolvable, active identity.
func (g *Guard) Authenticate(ctx context.Context, bearer string) (*domain.Identity, error) {
	res := g.Resolve(ctx, bearer)
	switch res.Kind {
	case Resolved:
		return res.Identity, nil
	case NoCredential:
		return nil, domain.ErrNotAuthenticated
	case Inactive:
		return nil, domain.ErrAccountInactive
	default:
		if res.Err != nil {
			return nil, res.Err
		}
		appLogger.WithRequestID(ctx, g.logger).Debug("bearer rejected", zap.String("reason", res.Reason))
		return nil, domain.ErrInvalidAuthentication
	}
}

// Optional resolves the caller when it can and returns nil otherwise.
// Every failure, including store errors, continues anonymously.
func (g *Guard) Optional(ctx context.Context, bearer string) *domain.Identity {
	res := g.Resolve(ctx, bearer)
	if res.Kind != Resolved {
		return nil
	}
	return res.Identity
}

// RequireRole checks the identity holds exactly the given role.
func RequireRole(identity *domain.Identity, role domain.Role) error {
	if identity == nil {
		return domain.ErrNotAuthenticated
	}
	if identity.Role == role {
		return nil
	}
	switch role {
	case domain.RoleAdmin:
		return domain.ErrAdminRequired
	case domain.RoleDealer:
		return domain.ErrDealerRequired
	default:
		return domain.ErrRoleRequired
	}
}

// RequireApprovedDealer lets admins through and otherwise demands an
// approved dealer profile.
func RequireApprovedDealer(identity *domain.Identity) error {
	if identity == nil {
		return domain.ErrNotAuthenticated
	}
	if identity.IsAdmin() {
		return nil
	}
	if identity.Dealer == nil {
		return domain.ErrDealerRequired
	}
	if !identity.Dealer.IsApproved() {
		return domain.ErrDealerNotApproved
	}
	return nil
}

// DealerScope returns the dealer id a caller's queries must be restricted to.
// Admins are unrestricted.
func DealerScope(identity *domain.Identity) (string, bool, error) {
	if identity == nil {
		return "", false, domain.ErrNotAuthenticated
	}
	if identity.IsAdmin() {
		return "", true, nil
	}
	dealerID, ok := identity.DealerID()
	if !ok {
		return "", false, domain.ErrDealerRequired
	}
	return dealerID, false, nil
}

// CanAccessDealerResource reports whether the identity may read or modify a
// resource owned by ownerDealerID.
func CanAccessDealerResource(identity *domain.Identity, ownerDealerID string) bool {
	if identity == nil {
		return false
	}
	if identity.IsAdmin() {
		return true
	}
	dealerID, ok := identity.DealerID()
	return ok && ownerDealerID != "" && dealerID == ownerDealerID
}

// CanViewInactiveCatalog reports whether inactive catalog entries are visible.
func CanViewInactiveCatalog(identity *domain.Identity) bool {
	return identity.IsAdmin()
}

type ctxKey struct{}

func ContextWithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	if identity == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(ctxKey{}).(*domain.Identity)
	return identity, ok && identity != nil
}
