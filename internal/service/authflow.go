package service

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	domainauth "github.com/nimbusbank/bankview/internal/domain/auth"
	apperrors "github.com/nimbusbank/bankview/internal/errors"
	"github.com/nimbusbank/bankview/internal/ports"
)

// emailPattern matches the shape check applied before any network call.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthFlowOptions groups dependencies for AuthFlowService.
type AuthFlowOptions struct {
	Bank     ports.BankAPI
	Sessions *SessionService
	Logger   *slog.Logger

	// MinPasswordLen is the client-side minimum password length.
	MinPasswordLen int
	// CooldownSeconds is the length of the login rate-limit countdown.
	CooldownSeconds int
	// TickInterval overrides the countdown tick for tests.
	TickInterval time.Duration
}

// AuthFlowService owns the authentication exchanges: login (with its
// rate-limit cooldown), signup and email verification, the forgot/verify/
// reset password chain, admin creation, and logout. Each sub-flow validates
// trivial client-side shape before any network call and classifies upstream
// failures through internal/errors.
type AuthFlowService struct {
	bank     ports.BankAPI
	sessions *SessionService
	logger   *slog.Logger

	minPasswordLen  int
	cooldownSeconds int
	tickInterval    time.Duration

	mu        sync.Mutex
	cooldowns map[string]*Countdown
}

// NewAuthFlowService constructs a new AuthFlowService.
func NewAuthFlowService(opts AuthFlowOptions) *AuthFlowService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	minLen := opts.MinPasswordLen
	if minLen <= 0 {
		minLen = 6
	}
	cooldown := opts.CooldownSeconds
	if cooldown <= 0 {
		cooldown = 60
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	return &AuthFlowService{
		bank:            opts.Bank,
		sessions:        opts.Sessions,
		logger:          logger,
		minPasswordLen:  minLen,
		cooldownSeconds: cooldown,
		tickInterval:    tick,
		cooldowns:       make(map[string]*Countdown),
	}
}

// LoginResult carries the committed credential and where to land next.
type LoginResult struct {
	Credential domainauth.Credential
	HomeRoute  string
}

// validateEmail checks the email shape.
func (s *AuthFlowService) validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return apperrors.ValidationField("email", "Invalid email format")
	}
	return nil
}

// validatePassword checks the minimum length.
func (s *AuthFlowService) validatePassword(password string) error {
	if len(password) < s.minPasswordLen {
		return apperrors.ValidationField("password",
			"Password must be at least "+strconv.Itoa(s.minPasswordLen)+" characters long")
	}
	return nil
}

// Login exchanges email+password for a credential. While the session's
// cooldown is non-zero the attempt is rejected locally without an upstream
// call; an upstream 429 arms the cooldown instead of producing a static
// error. Success commits the credential under a new generation and resolves
// the home route.
func (s *AuthFlowService) Login(ctx context.Context, sid string, in ports.LoginInput) (LoginResult, error) {
	if err := s.validateEmail(in.Email); err != nil {
		return LoginResult{}, err
	}
	if err := s.validatePassword(in.Password); err != nil {
		return LoginResult{}, err
	}
	if remaining := s.CooldownRemaining(sid); remaining > 0 {
		return LoginResult{}, apperrors.RateLimited(cooldownMessage(remaining))
	}

	res, err := s.bank.Login(ctx, in)
	if err != nil {
		if apperrors.IsRateLimited(err) {
			remaining := s.startCooldown(sid)
			return LoginResult{}, apperrors.RateLimited(cooldownMessage(remaining))
		}
		return LoginResult{}, err
	}

	cred := domainauth.Credential{
		Email:       in.Email,
		Roles:       domainauth.NewRoleSet(res.Roles...),
		AccessToken: res.AccessToken,
	}
	s.sessions.Set(ctx, sid, cred)
	return LoginResult{Credential: cred, HomeRoute: cred.Roles.HomeRoute()}, nil
}

func cooldownMessage(remaining int) string {
	return "Too many attempts. Try again in " + strconv.Itoa(remaining) + " seconds."
}

// CooldownRemaining returns the seconds left on the session's login
// cooldown; 0 means the form is usable.
func (s *AuthFlowService) CooldownRemaining(sid string) int {
	s.mu.Lock()
	c, ok := s.cooldowns[sid]
	s.mu.Unlock()
	if !ok {
		return 0
	}
	return c.Remaining()
}

// startCooldown arms (or re-arms) the session's cooldown and returns its
// length. When the countdown reaches zero it removes itself, which clears
// the rate-limit message from the login error surface on the next render.
func (s *AuthFlowService) startCooldown(sid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cooldowns[sid]
	if !ok {
		c = NewCountdownWithInterval(func() { s.dropCooldown(sid) }, s.tickInterval)
		s.cooldowns[sid] = c
	}
	c.Start(s.cooldownSeconds)
	return s.cooldownSeconds
}

func (s *AuthFlowService) dropCooldown(sid string) {
	s.mu.Lock()
	delete(s.cooldowns, sid)
	s.mu.Unlock()
}

// TickCooldown advances the session's cooldown by one second. Tests drive
// simulated time through this.
func (s *AuthFlowService) TickCooldown(sid string) {
	s.mu.Lock()
	c, ok := s.cooldowns[sid]
	s.mu.Unlock()
	if ok {
		c.Tick()
	}
}

// StopCooldown tears down the session's cooldown timer, e.g. when the
// session itself is discarded. Reaching zero is the other teardown path.
func (s *AuthFlowService) StopCooldown(sid string) {
	s.mu.Lock()
	c, ok := s.cooldowns[sid]
	delete(s.cooldowns, sid)
	s.mu.Unlock()
	if ok {
		c.Stop()
	}
}

// SignupInput carries the signup form fields.
type SignupInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	AdminKey        string
}

// Signup creates an account. The account is unusable for login until the
// verification code is exchanged via VerifyEmail (server enforced; the
// client only reflects it).
func (s *AuthFlowService) Signup(ctx context.Context, in SignupInput) error {
	if err := s.validatePassword(in.Password); err != nil {
		return err
	}
	if err := s.validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return apperrors.ValidationField("confirmPassword", "Passwords do not match")
	}
	return s.bank.Signup(ctx, ports.SignupInput{
		Email:    in.Email,
		Password: in.Password,
		AdminKey: in.AdminKey,
	})
}

// VerifyEmail exchanges a signup verification code for confirmed-account
// status.
func (s *AuthFlowService) VerifyEmail(ctx context.Context, email, code string) error {
	if code == "" {
		return apperrors.ValidationField("code", "Verification code is required")
	}
	return s.bank.VerifyEmail(ctx, ports.VerifyEmailInput{Email: email, Code: code})
}

// ForgotPassword requests a reset code for the email.
func (s *AuthFlowService) ForgotPassword(ctx context.Context, email string) error {
	if err := s.validateEmail(email); err != nil {
		return err
	}
	return s.bank.ForgotPassword(ctx, email)
}

// VerifyResetCode validates a reset code; the verified code authorizes the
// reset step.
func (s *AuthFlowService) VerifyResetCode(ctx context.Context, email, code string) error {
	if email == "" {
		return apperrors.Validation("Request a reset code first")
	}
	if code == "" {
		return apperrors.ValidationField("code", "Verification code is required")
	}
	return s.bank.VerifyResetCode(ctx, email, code)
}

// ResetPassword sets a new password given the original email and the
// verified code.
func (s *AuthFlowService) ResetPassword(ctx context.Context, in ports.ResetPasswordInput) error {
	if in.Email == "" || in.Code == "" {
		return apperrors.Validation("Verify your reset code first")
	}
	if err := s.validatePassword(in.NewPassword); err != nil {
		return err
	}
	return s.bank.ResetPassword(ctx, in)
}

// CreateAdmin creates an admin account on behalf of the session's resident
// admin credential. Reachability is enforced by the admin route guard; this
// additionally refuses to run without a resident bearer token.
func (s *AuthFlowService) CreateAdmin(ctx context.Context, sid string, in SignupInput) error {
	if err := s.validatePassword(in.Password); err != nil {
		return err
	}
	if err := s.validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return apperrors.ValidationField("confirmPassword", "Passwords do not match")
	}

	cred := s.sessions.Get(ctx, sid)
	if !cred.IsAuthenticated() {
		return apperrors.Unauthorized("Unauthorized")
	}
	return s.bank.CreateAdmin(ctx, cred.AccessToken, ports.SignupInput{
		Email:    in.Email,
		Password: in.Password,
	})
}

// Logout invalidates the upstream session (best effort) and clears the
// credential store; the HTTP layer expires the transport cookie in the
// same response, so no window leaves one cleared and the other not.
func (s *AuthFlowService) Logout(ctx context.Context, sid string) {
	cred := s.sessions.Get(ctx, sid)
	if cred.AccessToken != "" {
		if err := s.bank.Logout(ctx, cred.AccessToken); err != nil {
			s.logger.WarnContext(ctx, "upstream logout failed", "error", err)
		}
	}
	s.StopCooldown(sid)
	s.sessions.Clear(ctx, sid)
}
