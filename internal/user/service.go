package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/metrics"
	ratingentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/entity"
	ratingrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/social"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

// ResolverSource looks up the resolver for a provider.
type ResolverSource interface {
	Resolver(p social.Provider) (social.Resolver, error)
}

// TokenIssuer mints the bearer token returned on sign-in.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// IDGenerator hands out internal account ids.
type IDGenerator interface {
	Next() string
}

// Deps are the collaborators of UserService. Users, Ratings, Resolvers and
// Tokens are required; the rest have defaults.
type Deps struct {
	Users     userrepo.Store
	Ratings   ratingrepo.Store
	Resolvers ResolverSource
	Tokens    TokenIssuer
	IDs       IDGenerator
	Hasher    PasswordHasher
	Metrics   metrics.Recorder
	Logger    *zap.SugaredLogger
}

// UserService orchestrates account creation, sign-in and profile lifecycle
// for both local and social accounts.
type UserService struct {
	users     userrepo.Store
	ratings   ratingrepo.Store
	resolvers ResolverSource
	tokens    TokenIssuer
	ids       IDGenerator
	hasher    PasswordHasher
	metrics   metrics.Recorder
	logger    *zap.SugaredLogger
}

func NewUserService(d Deps) *UserService {
	if d.IDs == nil {
		d.IDs = utilities.NewIDGenerator(utilities.NodeFromEnv())
	}
	if d.Hasher == nil {
		d.Hasher = BcryptHasher{Cost: 12}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop().Sugar()
	}
	return &UserService{
		users:     d.Users,
		ratings:   d.Ratings,
		resolvers: d.Resolvers,
		tokens:    d.Tokens,
		ids:       d.IDs,
		hasher:    d.Hasher,
		metrics:   d.Metrics,
		logger:    d.Logger,
	}
}

// SignInResult is the authenticated account plus a freshly issued token.
type SignInResult struct {
	User  *entity.User
	Token string
}

// Create registers a new account. Local accounts are checked for an existing
// user id and hashed inside one transaction; social accounts take their user
// id from the provider.
func (s *UserService) Create(ctx context.Context, creds Credentials, p entity.Profile) (*entity.User, error) {
	var (
		u   *entity.User
		err error
	)
	switch c := creds.(type) {
	case LocalCredentials:
		u, err = s.createLocal(ctx, c, p)
	case SocialCredentials:
		u, err = s.createSocial(ctx, c, p)
	default:
		err = fmt.Errorf("%w: %T", ErrUnsupportedProvider, creds)
	}
	s.metrics.RecordCreate(originOf(creds), outcome(err))
	if err != nil {
		return nil, err
	}
	s.logger.Infow("user created", "id", u.ID, "provider", u.Provider)
	return u, nil
}

func (s *UserService) createLocal(ctx context.Context, c LocalCredentials, p entity.Profile) (*entity.User, error) {
	if c.UserID == "" || c.Password == "" {
		return nil, fmt.Errorf("%w: user id and password are required", ErrInvalidInput)
	}
	if len(c.Password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password exceeds %d bytes", ErrInvalidInput, maxPasswordBytes)
	}
	u := newUser(s.ids.Next(), c.UserID, entity.ProviderLocal, p)
	err := s.users.WithinTx(ctx, func(tx userrepo.Store) error {
		exists, err := tx.ExistsByUserID(ctx, c.UserID)
		if err != nil {
			return fmt.Errorf("check user id: %w", err)
		}
		if exists {
			return ErrAlreadyExists
		}
		hash, err := s.hasher.Hash(c.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.Password = &hash
		return insert(ctx, tx, u)
	})
	if err != nil {
		return nil, duplicateAsExists(err)
	}
	return u, nil
}

func (s *UserService) createSocial(ctx context.Context, c SocialCredentials, p entity.Profile) (*entity.User, error) {
	subject, err := s.resolveSocialID(ctx, c)
	if err != nil {
		return nil, err
	}
	u := newUser(s.ids.Next(), subject, string(c.Provider), p)
	err = s.users.WithinTx(ctx, func(tx userrepo.Store) error {
		return insert(ctx, tx, u)
	})
	if err != nil {
		return nil, duplicateAsExists(err)
	}
	return u, nil
}

// duplicateAsExists covers uniqueness failures reported outside insert,
// such as a deferred constraint firing at commit.
func duplicateAsExists(err error) error {
	if errors.Is(err, userrepo.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}

func insert(ctx context.Context, tx userrepo.Store, u *entity.User) error {
	if err := tx.Create(ctx, u); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func newUser(id, userID, provider string, p entity.Profile) *entity.User {
	return &entity.User{
		ID:         id,
		UserID:     userID,
		Provider:   provider,
		NickName:   p.NickName,
		Age:        p.Age,
		Gender:     p.Gender,
		PhoneNum:   p.PhoneNum,
		ProfileImg: p.ProfileImg,
		PushToken:  p.PushToken,
	}
}

// resolveSocialID asks the provider for the subject id. Exactly one provider
// call is made per invocation.
func (s *UserService) resolveSocialID(ctx context.Context, c SocialCredentials) (string, error) {
	if c.AccessToken == "" {
		return "", fmt.Errorf("%w: access token is required", ErrInvalidInput)
	}
	r, err := s.resolvers.Resolver(c.Provider)
	if err != nil {
		return "", err
	}
	start := time.Now()
	id, err := r.SocialID(ctx, c.AccessToken)
	s.metrics.RecordProviderCall(string(c.Provider), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrProviderFailure, c.Provider, err)
	}
	return id, nil
}

// SignIn authenticates creds and issues a token for the matching account.
// Unknown accounts, wrong passwords and accounts of another origin all fail
// with ErrSignInMismatch.
func (s *UserService) SignIn(ctx context.Context, creds Credentials) (*SignInResult, error) {
	res, err := s.signIn(ctx, creds)
	s.metrics.RecordSignIn(originOf(creds), outcome(err))
	if err != nil {
		s.logger.Debugw("sign-in failed", "origin", originOf(creds), "err", err)
		return nil, err
	}
	return res, nil
}

func (s *UserService) signIn(ctx context.Context, creds Credentials) (*SignInResult, error) {
	var u *entity.User
	switch c := creds.(type) {
	case LocalCredentials:
		found, err := s.lookupForSignIn(ctx, c.UserID)
		if err != nil {
			return nil, err
		}
		if !found.IsLocal() {
			return nil, ErrSignInMismatch
		}
		if err := validatePassword(s.hasher, found, c.Password); err != nil {
			return nil, err
		}
		u = found
	case SocialCredentials:
		subject, err := s.resolveSocialID(ctx, c)
		if err != nil {
			return nil, err
		}
		found, err := s.lookupForSignIn(ctx, subject)
		if err != nil {
			return nil, err
		}
		if found.Provider != string(c.Provider) {
			return nil, ErrSignInMismatch
		}
		u = found
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedProvider, creds)
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &SignInResult{User: u, Token: tok}, nil
}

func (s *UserService) lookupForSignIn(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.users.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignInMismatch
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// FindByID returns the account with internal id id.
func (s *UserService) FindByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateUser replaces the editable profile fields wholesale.
func (s *UserService) UpdateUser(ctx context.Context, id string, upd entity.ProfileUpdate) (*entity.User, error) {
	var out *entity.User
	err := s.users.WithinTx(ctx, func(tx userrepo.Store) error {
		u, err := tx.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		u.Apply(upd)
		if err := tx.Update(ctx, u); err != nil {
			return notFound(err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser hard-deletes the account. Its ratings go with it.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	err := s.users.WithinTx(ctx, func(tx userrepo.Store) error {
		if _, err := tx.GetByID(ctx, id); err != nil {
			return notFound(err)
		}
		if err := tx.Delete(ctx, id); err != nil {
			return notFound(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Infow("user deleted", "id", id)
	return nil
}

// ValidateUserID returns ErrAlreadyExists when userID is taken by any account.
func (s *UserService) ValidateUserID(ctx context.Context, userID string) error {
	exists, err := s.users.ExistsByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user id: %w", err)
	}
	if exists {
		return ErrAlreadyExists
	}
	return nil
}

// FindRatingsByUserID pages through the ratings an account left. An unknown
// account simply has none.
func (s *UserService) FindRatingsByUserID(ctx context.Context, page ratingentity.Page, userID string) ([]*ratingentity.StarRating, error) {
	out, err := s.ratings.FindByUserID(ctx, page.Normalize(), userID)
	if err != nil {
		return nil, fmt.Errorf("find ratings: %w", err)
	}
	if out == nil {
		out = []*ratingentity.StarRating{}
	}
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// outcome is the metrics label for a create or sign-in result.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrSignInMismatch):
		return "mismatch"
	case errors.Is(err, ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, ErrProviderFailure):
		return "provider_failure"
	case errors.Is(err, ErrUnsupportedProvider), errors.Is(err, ErrInvalidInput):
		return "rejected"
	default:
		return "error"
	}
}
