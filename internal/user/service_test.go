package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	ratingentity "github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/entity"
	ratingrepotest "github.com/ovaphlow/pitchfork/service-identity-go/internal/rating/repo/repotest"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/social"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo"
	userrepotest "github.com/ovaphlow/pitchfork/service-identity-go/internal/user/repo/repotest"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

// fakeResolver maps access tokens to subject ids.
type fakeResolver struct {
	provider social.Provider
	subjects map[string]string
	err      error

	mu    sync.Mutex
	calls int
}

func (f *fakeResolver) Provider() social.Provider { return f.provider }

func (f *fakeResolver) SocialID(ctx context.Context, accessToken string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	id, ok := f.subjects[accessToken]
	if !ok {
		return "", errors.New("invalid access token")
	}
	return id, nil
}

func (f *fakeResolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingHasher counts Hash calls so tests can assert exactly one per create.
type countingHasher struct {
	BcryptHasher
	hashes int
}

func (c *countingHasher) Hash(pw string) (string, error) {
	c.hashes++
	return c.BcryptHasher.Hash(pw)
}

type recordedCall struct{ kind, origin, outcome string }

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) RecordCreate(origin, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{"create", origin, outcome})
}

func (f *fakeRecorder) RecordSignIn(origin, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{"signin", origin, outcome})
}

func (f *fakeRecorder) RecordProviderCall(provider string, d time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	f.calls = append(f.calls, recordedCall{"provider", provider, outcome})
}

type fixture struct {
	svc     *UserService
	users   *userrepotest.MemoryStore
	kakao   *fakeResolver
	google  *fakeResolver
	hasher  *countingHasher
	metrics *fakeRecorder
	tokens  *token.Issuer
}

func newFixture(t *testing.T, ratings ...ratingentity.StarRating) *fixture {
	t.Helper()
	tokens, err := token.NewIssuer(token.Config{Secret: []byte("test-secret"), Issuer: "test"})
	require.NoError(t, err)

	f := &fixture{
		users:   userrepotest.NewMemoryStore(),
		kakao:   &fakeResolver{provider: social.Kakao, subjects: map[string]string{"kakao-token": "1001", "collide-token": "alice"}},
		google:  &fakeResolver{provider: social.Google, subjects: map[string]string{"google-token": "g-77"}},
		hasher:  &countingHasher{BcryptHasher: BcryptHasher{Cost: bcrypt.MinCost}},
		metrics: &fakeRecorder{},
		tokens:  tokens,
	}
	f.svc = NewUserService(Deps{
		Users:     f.users,
		Ratings:   ratingrepotest.NewMemoryStore(ratings...),
		Resolvers: social.NewRegistry(f.kakao, f.google),
		Tokens:    tokens,
		IDs:       utilities.NewIDGenerator(1),
		Hasher:    f.hasher,
		Metrics:   f.metrics,
	})
	return f
}

var sampleProfile = entity.Profile{
	NickName:   "alice",
	Age:        29,
	Gender:     "F",
	PhoneNum:   "010-1234-5678",
	ProfileImg: "https://img.example.com/a.png",
	PushToken:  "push-1",
}

func local(userID, pw string) LocalCredentials {
	return LocalCredentials{UserID: userID, Password: pw}
}

func TestCreateLocal_ThenFindByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, 1, f.hasher.hashes)

	got, err := f.svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, entity.ProviderLocal, got.Provider)
	assert.Equal(t, sampleProfile.NickName, got.NickName)
	assert.Equal(t, sampleProfile.Age, got.Age)
	assert.Equal(t, sampleProfile.Gender, got.Gender)
	assert.Equal(t, sampleProfile.PhoneNum, got.PhoneNum)
	assert.Equal(t, sampleProfile.ProfileImg, got.ProfileImg)
	assert.Equal(t, sampleProfile.PushToken, got.PushToken)
	require.NotNil(t, got.Password)
	assert.NotEqual(t, "s3cret!", *got.Password)
	assert.True(t, f.hasher.Verify(*got.Password, "s3cret!"))
}

func TestCreateLocal_DuplicateUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, local("alice", "pw-one"), sampleProfile)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, local("alice", "pw-two"), sampleProfile)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, f.users.Len())
	// the pre-check rejects before any hashing happens
	assert.Equal(t, 1, f.hasher.hashes)
}

func TestCreateLocal_StorageDuplicateIsAlreadyExists(t *testing.T) {
	f := newFixture(t)
	f.users.CreateErr = fmt.Errorf("%w (users_user_id_key)", userrepo.ErrDuplicate)

	_, err := f.svc.Create(context.Background(), local("bob", "pw"), sampleProfile)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 0, f.users.Len())
}

func TestCreateLocal_StorageFailurePropagates(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("connection reset")
	f.users.CreateErr = boom

	_, err := f.svc.Create(context.Background(), local("bob", "pw"), sampleProfile)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateLocal_RequiresIDAndPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), local("", "pw"), sampleProfile)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Create(context.Background(), local("carol", ""), sampleProfile)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.hasher.hashes)
}

func TestCreateLocal_PasswordLimitCountsBytes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 30 Hangul syllables are 90 bytes, past bcrypt's 72
	_, err := f.svc.Create(ctx, local("minji", strings.Repeat("비", 30)), sampleProfile)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.hasher.hashes)
	assert.Equal(t, 0, f.users.Len())

	pw := strings.Repeat("비", 24)
	_, err = f.svc.Create(ctx, local("minji", pw), sampleProfile)
	require.NoError(t, err)
	_, err = f.svc.SignIn(ctx, local("minji", pw))
	assert.NoError(t, err)
}

// commitDuplicateStore fails every transaction at commit with a unique violation.
type commitDuplicateStore struct {
	*userrepotest.MemoryStore
}

func (s commitDuplicateStore) WithinTx(ctx context.Context, fn func(tx userrepo.Store) error) error {
	return s.MemoryStore.WithinTx(ctx, func(tx userrepo.Store) error {
		if err := fn(tx); err != nil {
			return err
		}
		return fmt.Errorf("commit tx: %w (users_user_id_key)", userrepo.ErrDuplicate)
	})
}

func TestCreate_DuplicateAtCommitIsAlreadyExists(t *testing.T) {
	f := newFixture(t)
	store := commitDuplicateStore{userrepotest.NewMemoryStore()}
	svc := NewUserService(Deps{
		Users:     store,
		Ratings:   ratingrepotest.NewMemoryStore(),
		Resolvers: social.NewRegistry(f.kakao),
		Tokens:    f.tokens,
		Hasher:    f.hasher,
	})
	ctx := context.Background()

	_, err := svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Create(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "kakao-token"}, sampleProfile)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 0, store.Len())
}

func TestSignInLocal_IssuesFreshTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	require.NoError(t, err)

	first, err := f.svc.SignIn(ctx, local("alice", "s3cret!"))
	require.NoError(t, err)
	second, err := f.svc.SignIn(ctx, local("alice", "s3cret!"))
	require.NoError(t, err)

	assert.Equal(t, created.ID, first.User.ID)
	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.Token, second.Token)

	sub, err := f.tokens.Parse(first.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, sub)
}

func TestSignInLocal_WrongPasswordAndUnknownUserAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	require.NoError(t, err)

	res, wrongPw := f.svc.SignIn(ctx, local("alice", "guess"))
	assert.Nil(t, res)
	res, unknown := f.svc.SignIn(ctx, local("mallory", "s3cret!"))
	assert.Nil(t, res)

	assert.ErrorIs(t, wrongPw, ErrSignInMismatch)
	assert.ErrorIs(t, unknown, ErrSignInMismatch)
	assert.Equal(t, wrongPw.Error(), unknown.Error())
}

func TestSocial_CreateThenSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "kakao-token"}, sampleProfile)
	require.NoError(t, err)
	assert.Equal(t, "1001", created.UserID)
	assert.Equal(t, "KAKAO", created.Provider)
	assert.Nil(t, created.Password)
	assert.Equal(t, 0, f.hasher.hashes)
	assert.Equal(t, 1, f.kakao.Calls())

	res, err := f.svc.SignIn(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "kakao-token"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 2, f.kakao.Calls())
}

func TestSocial_DuplicateSubjectIsAlreadyExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	creds := SocialCredentials{Provider: social.Google, AccessToken: "google-token"}

	_, err := f.svc.Create(ctx, creds, sampleProfile)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, creds, sampleProfile)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Equal(t, 1, f.users.Len())
}

func TestSocial_SubjectCollidingWithLocalAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	require.NoError(t, err)

	// external ids are unique across origins
	_, err = f.svc.Create(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "collide-token"}, sampleProfile)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// and a provider subject never signs into a local account
	_, err = f.svc.SignIn(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "collide-token"})
	assert.ErrorIs(t, err, ErrSignInMismatch)
}

func TestSignInLocal_AgainstSocialAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "kakao-token"}, sampleProfile)
	require.NoError(t, err)

	_, err = f.svc.SignIn(ctx, local("1001", ""))
	assert.ErrorIs(t, err, ErrSignInMismatch)
}

func TestSocial_ProviderFailureIsNotMismatch(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("kapi.kakao.com: 503")
	f.kakao.err = cause
	ctx := context.Background()

	_, err := f.svc.Create(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "kakao-token"}, sampleProfile)
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 0, f.users.Len())

	_, err = f.svc.SignIn(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "kakao-token"})
	assert.ErrorIs(t, err, ErrProviderFailure)
	assert.NotErrorIs(t, err, ErrSignInMismatch)
}

func TestSocial_UnregisteredAndUnsupportedProviders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, SocialCredentials{Provider: social.Naver, AccessToken: "x"}, sampleProfile)
	assert.ErrorIs(t, err, social.ErrResolverNotRegistered)
	assert.NotErrorIs(t, err, ErrUnsupportedProvider)

	_, err = f.svc.SignIn(ctx, SocialCredentials{Provider: "MYSPACE", AccessToken: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = f.svc.SignIn(ctx, nil)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

func TestSocial_EmptyAccessTokenSkipsProvider(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SignIn(context.Background(), SocialCredentials{Provider: social.Kakao})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, f.kakao.Calls())
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	require.NoError(t, err)

	upd := entity.ProfileUpdate{NickName: "ally", Age: 30, Gender: "U", PhoneNum: "", ProfileImg: "https://img.example.com/b.png"}
	updated, err := f.svc.UpdateUser(ctx, created.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "ally", updated.NickName)

	got, err := f.svc.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ally", got.NickName)
	assert.Equal(t, 30, got.Age)
	assert.Equal(t, "U", got.Gender)
	assert.Equal(t, "", got.PhoneNum)
	assert.Equal(t, "https://img.example.com/b.png", got.ProfileImg)
	// identity and credential untouched
	assert.Equal(t, created.UserID, got.UserID)
	assert.Equal(t, created.Provider, got.Provider)
	assert.Equal(t, *created.Password, *got.Password)
	assert.Equal(t, sampleProfile.PushToken, got.PushToken)

	_, err = f.svc.SignIn(ctx, local("alice", "s3cret!"))
	assert.NoError(t, err)
}

func TestUpdateUser_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpdateUser(context.Background(), "missing", entity.ProfileUpdate{NickName: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, created.ID))
	_, err = f.svc.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.svc.DeleteUser(ctx, created.ID), ErrNotFound)

	// the external id is free again
	assert.NoError(t, f.svc.ValidateUserID(ctx, "alice"))
}

func TestValidateUserID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.NoError(t, f.svc.ValidateUserID(ctx, "alice"))

	_, err := f.svc.Create(ctx, SocialCredentials{Provider: social.Kakao, AccessToken: "collide-token"}, sampleProfile)
	require.NoError(t, err)
	// taken by a social account, still unavailable
	assert.ErrorIs(t, f.svc.ValidateUserID(ctx, "alice"), ErrAlreadyExists)
}

func TestFindRatingsByUserID(t *testing.T) {
	now := time.Now()
	f := newFixture(t,
		ratingentity.StarRating{ID: "r1", UserID: "u1", ComicID: "c1", Rating: 4.5, CreatedAt: now.Add(-time.Hour)},
		ratingentity.StarRating{ID: "r2", UserID: "u1", ComicID: "c2", Rating: 3, CreatedAt: now},
		ratingentity.StarRating{ID: "r3", UserID: "u2", ComicID: "c1", Rating: 5, CreatedAt: now},
	)
	ctx := context.Background()

	got, err := f.svc.FindRatingsByUserID(ctx, ratingentity.Page{Number: 0, Size: 10}, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID)

	empty, err := f.svc.FindRatingsByUserID(ctx, ratingentity.Page{}, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMetricsOutcomes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.svc.Create(ctx, local("alice", "s3cret!"), sampleProfile)
	_, _ = f.svc.SignIn(ctx, local("alice", "nope"))
	_, _ = f.svc.SignIn(ctx, SocialCredentials{Provider: social.Google, AccessToken: "google-token"})

	assert.Equal(t, []recordedCall{
		{"create", "COCONUT", "success"},
		{"signin", "COCONUT", "mismatch"},
		{"provider", "GOOGLE", "ok"},
		{"signin", "GOOGLE", "mismatch"},
	}, f.metrics.calls)
}
