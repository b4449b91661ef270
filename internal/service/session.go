package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/ports"
)

// defaultEntryTTL matches the mirror's default record TTL, so an idle
// in-memory entry never outlives its durable copy.
const defaultEntryTTL = 12 * time.Hour

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Bank   ports.BankAPI
	Mirror ports.MirrorStore
	Logger *slog.Logger

	// EntryTTL bounds how long an idle in-memory entry survives. Zero
	// selects defaultEntryTTL.
	EntryTTL time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// SessionService owns the per-browser-session credential registry: the
// in-memory source of truth, its durable Redis mirror, and the bootstrap
// exchange that resolves a bearer token cookie into a validated credential.
//
// Every write carries a monotonically increasing per-session generation.
// Bootstrap snapshots the generation before its network call and commits
// with SetIfCurrent, so a stale bootstrap response can never clobber a login
// that completed while it was in flight.
type SessionService struct {
	bank   ports.BankAPI
	mirror ports.MirrorStore
	logger *slog.Logger

	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry

	boot singleflight.Group
}

type sessionEntry struct {
	cred    domainauth.Credential
	gen     uint64
	touched time.Time
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.EntryTTL
	if ttl <= 0 {
		ttl = defaultEntryTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		bank:    opts.Bank,
		mirror:  opts.Mirror,
		logger:  logger,
		ttl:     ttl,
		now:     now,
		entries: make(map[string]*sessionEntry),
	}
}

func (s *SessionService) entryExpired(e *sessionEntry, now time.Time) bool {
	return now.Sub(e.touched) > s.ttl
}

// evictExpiredLocked drops every idle-expired entry. Callers hold s.mu.
func (s *SessionService) evictExpiredLocked(now time.Time) {
	for sid, e := range s.entries {
		if s.entryExpired(e, now) {
			delete(s.entries, sid)
		}
	}
}

// Get returns the resident credential for a session, falling back to the
// durable mirror when no in-memory entry exists (e.g. after a gateway
// restart), and the anonymous credential otherwise. The mirror is derived
// state: a fresh in-memory credential always wins over it.
func (s *SessionService) Get(ctx context.Context, sid string) domainauth.Credential {
	now := s.now()
	s.mu.Lock()
	if e, ok := s.entries[sid]; ok {
		if !s.entryExpired(e, now) {
			e.touched = now
			cred := e.cred
			s.mu.Unlock()
			return cred
		}
		delete(s.entries, sid)
	}
	s.mu.Unlock()

	if s.mirror == nil || sid == "" {
		return domainauth.Anonymous()
	}
	m, err := s.mirror.Get(ctx, sid)
	if err != nil || !m.Authenticated {
		return domainauth.Anonymous()
	}

	// Rehydrate the in-memory entry from the mirror, but never regress a
	// session that gained an entry while the mirror read was in flight.
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sid]; ok {
		return e.cred
	}
	s.entries[sid] = &sessionEntry{cred: m.Credential.Normalize(), gen: m.Generation, touched: now}
	return m.Credential.Normalize()
}

// Snapshot returns the credential together with its generation, for use
// with SetIfCurrent.
func (s *SessionService) Snapshot(ctx context.Context, sid string) (domainauth.Credential, uint64) {
	cred := s.Get(ctx, sid)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[sid]; ok {
		return e.cred, e.gen
	}
	return cred, 0
}

// Set stores the credential under a new generation and mirrors it. The
// in-memory entry and the mirror are written in one step under the session
// lock; no partial update is observable through Get.
func (s *SessionService) Set(ctx context.Context, sid string, cred domainauth.Credential) uint64 {
	cred = cred.Normalize()
	now := s.now()
	s.mu.Lock()
	s.evictExpiredLocked(now)
	e, ok := s.entries[sid]
	if !ok {
		e = &sessionEntry{}
		s.entries[sid] = e
	}
	e.gen++
	e.cred = cred
	e.touched = now
	gen := e.gen
	s.mu.Unlock()

	s.saveMirror(ctx, sid, cred, gen)
	return gen
}

// SetIfCurrent stores the credential only when the session's generation
// still matches the caller's snapshot. It reports whether the write landed.
func (s *SessionService) SetIfCurrent(ctx context.Context, sid string, cred domainauth.Credential, gen uint64) bool {
	cred = cred.Normalize()
	now := s.now()
	s.mu.Lock()
	s.evictExpiredLocked(now)
	e, ok := s.entries[sid]
	if !ok {
		if gen != 0 {
			s.mu.Unlock()
			return false
		}
		e = &sessionEntry{}
		s.entries[sid] = e
	}
	if e.gen != gen {
		s.mu.Unlock()
		return false
	}
	e.gen++
	e.cred = cred
	e.touched = now
	newGen := e.gen
	s.mu.Unlock()

	s.saveMirror(ctx, sid, cred, newGen)
	return true
}

// Clear deletes the session entry and drops the mirror record, so cleared
// sessions never accumulate in memory. A bootstrap that snapshotted the
// deleted entry's generation cannot recommit it: SetIfCurrent refuses a
// non-zero generation against a missing entry. The transport cookie is
// expired by the HTTP layer in the same response.
func (s *SessionService) Clear(ctx context.Context, sid string) {
	s.mu.Lock()
	delete(s.entries, sid)
	s.mu.Unlock()

	if s.mirror == nil || sid == "" {
		return
	}
	if err := s.mirror.Delete(ctx, sid); err != nil {
		s.logger.WarnContext(ctx, "delete credential mirror failed", "sid", sid, "error", err)
	}
}

// saveMirror writes the durable mirror copy. Mirror failures degrade to
// in-memory-only sessions; they are logged, not fatal.
func (s *SessionService) saveMirror(ctx context.Context, sid string, cred domainauth.Credential, gen uint64) {
	if s.mirror == nil || sid == "" {
		return
	}
	if err := s.mirror.Save(ctx, domainauth.NewMirror(sid, cred, gen)); err != nil {
		s.logger.WarnContext(ctx, "save credential mirror failed", "sid", sid, "error", err)
	}
}

// Bootstrap resolves a bearer token found in the transport cookie into a
// validated credential by calling the identity endpoint. On success with a
// non-empty role set the credential is committed (unless a newer write
// landed meanwhile); on any failure the session degrades to logged out,
// never to a hung or ambiguous state. No retry is attempted.
//
// Concurrent bootstraps for the same session and token (several tabs
// loading at once) are collapsed into a single profile call.
func (s *SessionService) Bootstrap(ctx context.Context, sid, token string) (domainauth.Credential, error) {
	v, err, _ := s.boot.Do(sid+"\x00"+token, func() (any, error) {
		// The collapsed call serves every waiting request; detach it
		// from the first caller's cancellation so one closed tab does
		// not clear the session for the rest. The bank client's own
		// timeout still bounds the call.
		return s.bootstrap(context.WithoutCancel(ctx), sid, token)
	})
	if err != nil {
		return domainauth.Anonymous(), err
	}
	cred, ok := v.(domainauth.Credential)
	if !ok {
		return domainauth.Anonymous(), apperrors.Internal("unexpected bootstrap result type")
	}
	return cred, nil
}

func (s *SessionService) bootstrap(ctx context.Context, sid, token string) (domainauth.Credential, error) {
	_, gen := s.Snapshot(ctx, sid)

	profile, err := s.bank.Profile(ctx, token)
	if err != nil {
		s.Clear(ctx, sid)
		return domainauth.Anonymous(), apperrors.AuthExpired(err)
	}

	roles := domainauth.NewRoleSet(profile.Roles...)
	if roles.IsEmpty() {
		s.Clear(ctx, sid)
		return domainauth.Anonymous(), apperrors.AuthExpired(nil)
	}

	cred := domainauth.Credential{Email: profile.Email, Roles: roles, AccessToken: token}
	if !s.SetIfCurrent(ctx, sid, cred, gen) {
		// A login or logout completed while the profile call was in
		// flight; the newer write wins.
		s.logger.InfoContext(ctx, "bootstrap superseded by newer session write", "sid", sid)
		return s.Get(ctx, sid), nil
	}
	return cred, nil
}
