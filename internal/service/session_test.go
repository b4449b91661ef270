package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	"github.com/nimbusbank/bankview/internal/domain/model"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/mocks"
	mockbank "github.com/nimbusbank/bankview/internal/mocks/bank"
	"github.com/nimbusbank/bankview/internal/testutil"
)

func newSessionService(api *mockbank.MockBankAPI) (*SessionService, *mockbank.MemoryMirrorStore) {
	mirror := mockbank.NewMemoryMirrorStore()
	svc := NewSessionService(SessionServiceOptions{Bank: api, Mirror: mirror})
	return svc, mirror
}

func TestSessionService_Get_UnknownSession(t *testing.T) {
	svc, _ := newSessionService(mockbank.NewMockBankAPI())

	cred := svc.Get(context.Background(), "nope")

	assert.False(t, cred.IsAuthenticated())
	assert.True(t, cred.Roles.IsEmpty())
	assert.Empty(t, cred.AccessToken)
}

func TestSessionService_SetGet_RoundTrip(t *testing.T) {
	svc, _ := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	want := testutil.NewCredential().
		WithEmail("a@b.com").
		WithRoles("user").
		WithToken("tok-1").
		Build()
	svc.Set(ctx, "sid-1", want)

	got := svc.Get(ctx, "sid-1")
	assert.Equal(t, "a@b.com", got.Email)
	assert.True(t, got.Roles.Has(domainauth.RoleUser))
	assert.Equal(t, "tok-1", got.AccessToken)
	assert.True(t, got.IsAuthenticated())
}

func TestSessionService_Clear_ResetsToAnonymous(t *testing.T) {
	svc, mirror := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().Build())
	svc.Clear(ctx, "sid-1")

	got := svc.Get(ctx, "sid-1")
	assert.False(t, got.IsAuthenticated())
	assert.Empty(t, got.AccessToken)

	_, err := mirror.Get(ctx, "sid-1")
	assert.ErrorIs(t, err, mockbank.ErrNotFound)
}

func TestSessionService_Clear_RemovesEntry(t *testing.T) {
	svc, _ := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().Build())
	svc.Clear(ctx, "sid-1")

	assert.Empty(t, svc.entries)
}

func TestSessionService_SetIfCurrent_RefusesAfterClear(t *testing.T) {
	svc, _ := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().WithEmail("a@b.com").Build())
	_, gen := svc.Snapshot(ctx, "sid-1")
	svc.Clear(ctx, "sid-1")

	ok := svc.SetIfCurrent(ctx, "sid-1", testutil.NewCredential().WithEmail("a@b.com").Build(), gen)

	assert.False(t, ok)
	assert.False(t, svc.Get(ctx, "sid-1").IsAuthenticated())
}

func TestSessionService_Get_EvictsIdleEntry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	svc := NewSessionService(SessionServiceOptions{
		Bank:     mockbank.NewMockBankAPI(),
		EntryTTL: time.Hour,
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().WithEmail("a@b.com").Build())

	now = now.Add(30 * time.Minute)
	assert.True(t, svc.Get(ctx, "sid-1").IsAuthenticated())

	// The read above refreshed the entry; only a full idle period
	// expires it.
	now = now.Add(2 * time.Hour)
	assert.False(t, svc.Get(ctx, "sid-1").IsAuthenticated())
	assert.Empty(t, svc.entries)
}

func TestSessionService_Set_SweepsIdleEntries(t *testing.T) {
	now := time.Unix(1700000000, 0)
	svc := NewSessionService(SessionServiceOptions{
		Bank:     mockbank.NewMockBankAPI(),
		EntryTTL: time.Hour,
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()

	svc.Set(ctx, "sid-old", testutil.NewCredential().WithEmail("old@b.com").Build())

	now = now.Add(2 * time.Hour)
	svc.Set(ctx, "sid-new", testutil.NewCredential().WithEmail("new@b.com").Build())

	assert.Len(t, svc.entries, 1)
	assert.Contains(t, svc.entries, "sid-new")
}

func TestSessionService_SetIfCurrent_RejectsStale(t *testing.T) {
	svc, _ := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	_, gen := svc.Snapshot(ctx, "sid-1")

	// A login lands after the snapshot was taken.
	fresh := testutil.NewCredential().WithEmail("fresh@b.com").Build()
	svc.Set(ctx, "sid-1", fresh)

	stale := testutil.NewCredential().WithEmail("stale@b.com").Build()
	ok := svc.SetIfCurrent(ctx, "sid-1", stale, gen)

	assert.False(t, ok)
	assert.Equal(t, "fresh@b.com", svc.Get(ctx, "sid-1").Email)
}

func TestSessionService_SetIfCurrent_AcceptsCurrent(t *testing.T) {
	svc, _ := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().WithEmail("old@b.com").Build())
	_, gen := svc.Snapshot(ctx, "sid-1")

	ok := svc.SetIfCurrent(ctx, "sid-1", testutil.NewCredential().WithEmail("new@b.com").Build(), gen)

	assert.True(t, ok)
	assert.Equal(t, "new@b.com", svc.Get(ctx, "sid-1").Email)
}

func TestSessionService_Get_MirrorFallback(t *testing.T) {
	svc, mirror := newSessionService(mockbank.NewMockBankAPI())
	ctx := context.Background()

	// Simulate a credential persisted by a previous process.
	cred := testutil.NewCredential().WithEmail("a@b.com").WithRoles("admin").Build()
	require.NoError(t, mirror.Save(ctx, domainauth.NewMirror("sid-1", cred, 4)))

	got := svc.Get(ctx, "sid-1")
	assert.Equal(t, "a@b.com", got.Email)
	assert.True(t, got.Roles.Has(domainauth.RoleAdmin))

	// Rehydration keeps the mirrored generation so in-flight writers
	// snapshotting afterwards stay consistent.
	_, gen := svc.Snapshot(ctx, "sid-1")
	assert.Equal(t, uint64(4), gen)
}

func TestSessionService_Bootstrap_ValidToken(t *testing.T) {
	api := mockbank.NewMockBankAPI()
	api.DefaultProfile = model.Profile{Email: "a@b.com", Roles: []string{"user"}}
	svc, _ := newSessionService(api)
	ctx := context.Background()

	cred, err := svc.Bootstrap(ctx, "sid-1", "cookie-token")

	require.NoError(t, err)
	assert.Equal(t, "a@b.com", cred.Email)
	assert.True(t, cred.Roles.Has(domainauth.RoleUser))
	assert.Equal(t, "cookie-token", cred.AccessToken)

	stored := svc.Get(ctx, "sid-1")
	assert.Equal(t, cred, stored)
}

func TestSessionService_Bootstrap_ProfileRejected(t *testing.T) {
	api := mockbank.NewMockBankAPI()
	api.ProfileFunc = func(_ context.Context, _ string) (model.Profile, error) {
		return model.Profile{}, apperrors.Unauthorized("Unauthorized")
	}
	svc, _ := newSessionService(api)
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().Build())
	cred, err := svc.Bootstrap(ctx, "sid-1", "expired-token")

	assert.True(t, apperrors.IsAuthExpired(err))
	assert.False(t, cred.IsAuthenticated())
	assert.False(t, svc.Get(ctx, "sid-1").IsAuthenticated())
}

func TestSessionService_Bootstrap_EmptyRoles(t *testing.T) {
	api := mockbank.NewMockBankAPI()
	api.DefaultProfile = model.Profile{Email: "a@b.com"}
	svc, _ := newSessionService(api)

	cred, err := svc.Bootstrap(context.Background(), "sid-1", "tok")

	assert.True(t, apperrors.IsAuthExpired(err))
	assert.False(t, cred.IsAuthenticated())
}

func TestSessionService_Bootstrap_SurvivesCallerCancel(t *testing.T) {
	api := mockbank.NewMockBankAPI()
	api.ProfileFunc = func(ctx context.Context, _ string) (model.Profile, error) {
		// The identity call must not inherit a caller's cancellation:
		// the collapsed result is shared with every waiting request.
		if err := ctx.Err(); err != nil {
			return model.Profile{}, apperrors.Unreachable(err)
		}
		return model.Profile{Email: "a@b.com", Roles: []string{"user"}}, nil
	}
	svc, _ := newSessionService(api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cred, err := svc.Bootstrap(ctx, "sid-1", "cookie-token")

	require.NoError(t, err)
	assert.True(t, cred.IsAuthenticated())
	assert.Equal(t, "a@b.com", cred.Email)
}

func TestSessionService_Bootstrap_SupersededByLogin(t *testing.T) {
	api := mockbank.NewMockBankAPI()
	svc, _ := newSessionService(api)
	ctx := context.Background()

	login := testutil.NewCredential().WithEmail("login@b.com").WithToken("login-tok").Build()
	api.ProfileFunc = func(_ context.Context, _ string) (model.Profile, error) {
		// A login completes while the profile call is in flight.
		svc.Set(ctx, "sid-1", login)
		return model.Profile{Email: "stale@b.com", Roles: []string{"user"}}, nil
	}

	cred, err := svc.Bootstrap(ctx, "sid-1", "cookie-token")

	require.NoError(t, err)
	assert.Equal(t, "login@b.com", cred.Email)
	assert.Equal(t, "login@b.com", svc.Get(ctx, "sid-1").Email)
}

func TestSessionService_Set_WritesMirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockMirrorStore(ctrl)
	svc := NewSessionService(SessionServiceOptions{Bank: mockbank.NewMockBankAPI(), Mirror: store})
	ctx := context.Background()

	cred := testutil.NewCredential().WithEmail("a@b.com").Build()
	store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, m domainauth.Mirror) error {
			assert.Equal(t, "sid-1", m.SID)
			assert.Equal(t, "a@b.com", m.Credential.Email)
			assert.True(t, m.Authenticated)
			assert.Equal(t, uint64(1), m.Generation)
			return nil
		})

	svc.Set(ctx, "sid-1", cred)
}

func TestSessionService_Set_MirrorFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockMirrorStore(ctrl)
	store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	svc := NewSessionService(SessionServiceOptions{Bank: mockbank.NewMockBankAPI(), Mirror: store})
	ctx := context.Background()

	svc.Set(ctx, "sid-1", testutil.NewCredential().WithEmail("a@b.com").Build())

	// The in-memory entry is still authoritative.
	assert.Equal(t, "a@b.com", svc.Get(ctx, "sid-1").Email)
}
