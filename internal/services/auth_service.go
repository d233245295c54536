package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wdv96wdv/Doclimb/internal/models"
	"github.com/wdv96wdv/Doclimb/internal/repository"
	"github.com/wdv96wdv/Doclimb/internal/session"
	"github.com/wdv96wdv/Doclimb/pkg/utils"
)

const (
	minPasswordLength = 8
	maxNicknameLength = 20

	PathLogin = "/login"
	PathHome  = "/"
	PathAdmin = "/admin"
)

type authUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIdentity(ctx context.Context, provider, subject string) (*models.User, error)
	LinkIdentity(ctx context.Context, userID uuid.UUID, provider, subject string) error
	ConfirmEmail(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type authProfileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	NicknameTaken(ctx context.Context, nickname string, exclude *uuid.UUID) (bool, error)
	SetRole(ctx context.Context, id uuid.UUID, role string) error
}

type accountCreator interface {
	CreateAccount(
		ctx context.Context,
		user *models.User,
		profile repository.CreateProfileInput,
		identity *models.ExternalIdentity,
	) (*models.Profile, error)
}

type sessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error
	RevokeUser(ctx context.Context, userID string, at time.Time, ttl time.Duration) error
	RegisterFailure(ctx context.Context, subject string, window time.Duration) (int64, error)
	Failures(ctx context.Context, subject string) (int64, error)
	ClearFailures(ctx context.Context, subject string) error
}

type eventPublisher interface {
	Publish(event session.Event)
}

type AuthOptions struct {
	JWTSecret        string
	TokenTTL         time.Duration
	ConfirmTTL       time.Duration
	ConfirmURL       string
	LoginMaxAttempts int
	LoginLockout     time.Duration
}

type AuthService struct {
	users    authUserStore
	profiles authProfileStore
	accounts accountCreator
	sessions sessionStore
	mailer   Mailer
	avatars  StorageService
	events   eventPublisher
	opts     AuthOptions
	now      func() time.Time
}

func NewAuthService(
	users authUserStore,
	profiles authProfileStore,
	accounts accountCreator,
	sessions sessionStore,
	mailer Mailer,
	avatars StorageService,
	events eventPublisher,
	opts AuthOptions,
) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = utils.DefaultTokenTTL
	}
	if opts.ConfirmTTL <= 0 {
		opts.ConfirmTTL = 48 * time.Hour
	}
	if opts.LoginMaxAttempts <= 0 {
		opts.LoginMaxAttempts = 5
	}
	if opts.LoginLockout <= 0 {
		opts.LoginLockout = 15 * time.Minute
	}
	return &AuthService{
		users:    users,
		profiles: profiles,
		accounts: accounts,
		sessions: sessions,
		mailer:   mailer,
		avatars:  avatars,
		events:   events,
		opts:     opts,
		now:      time.Now,
	}
}

type SignUpInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
	Nickname        string
	DisplayNickname string
	ClimbingLevel   *string
	PreferredGym    *string
	ClimbingStyle   []string
}

type SignUpResult struct {
	User             *models.User    `json:"user"`
	Profile          *models.Profile `json:"profile"`
	ConfirmationSent bool            `json:"confirmation_sent"`
	Next             string          `json:"next"`
}

type SignInResult struct {
	Token   string          `json:"token"`
	User    *models.User    `json:"user"`
	Profile *models.Profile `json:"profile"`
	Next    string          `json:"next"`
}

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return invalid("password", "password must be at least 8 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return invalid("password", "password must contain letters and digits")
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", invalid("email", "invalid email format")
	}
	return strings.ToLower(parsed.Address), nil
}

func validateLevel(level *string) error {
	if level == nil || *level == "" {
		return nil
	}
	switch *level {
	case models.LevelBeginner, models.LevelIntermediate, models.LevelAdvanced:
		return nil
	default:
		return invalid("climbing_level", "unknown climbing level")
	}
}

func validateStyles(styles []string) error {
	for _, style := range styles {
		switch style {
		case models.StyleBoulder, models.StyleLead, models.StyleTopRope:
		default:
			return invalid("climbing_style", "unknown climbing style")
		}
	}
	return nil
}

func validateNickname(nickname string) error {
	if nickname == "" {
		return invalid("display_nickname", "nickname is required")
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return invalid("display_nickname", "nickname is too long")
	}
	return nil
}

func (in *SignUpInput) normalize() error {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	in.Email = email
	in.Name = strings.TrimSpace(in.Name)
	in.Nickname = strings.TrimSpace(in.Nickname)
	in.DisplayNickname = strings.TrimSpace(in.DisplayNickname)
	if in.DisplayNickname == "" {
		in.DisplayNickname = in.Nickname
	}
	in.PreferredGym = trimOptional(in.PreferredGym)

	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.PasswordConfirm {
		return invalid("password_confirm", "passwords do not match")
	}
	if in.Name == "" {
		return invalid("name", "name is required")
	}
	if err := validateNickname(in.DisplayNickname); err != nil {
		return err
	}
	if err := validateLevel(in.ClimbingLevel); err != nil {
		return err
	}
	return validateStyles(in.ClimbingStyle)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// EmailAvailable reports whether no account uses the address yet.
func (s *AuthService) EmailAvailable(ctx context.Context, rawEmail string) (bool, error) {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return false, err
	}
	_, err = s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

func (s *AuthService) NicknameAvailable(ctx context.Context, nickname string) (bool, error) {
	nickname = strings.TrimSpace(nickname)
	if err := validateNickname(nickname); err != nil {
		return false, err
	}
	taken, err := s.profiles.NicknameTaken(ctx, nickname, nil)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput) (*SignUpResult, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}

	emailFree, err := s.EmailAvailable(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if !emailFree {
		return nil, ErrAlreadyRegistered
	}
	nicknameFree, err := s.NicknameAvailable(ctx, input.DisplayNickname)
	if err != nil {
		return nil, err
	}
	if !nicknameFree {
		return nil, invalid("display_nickname", "nickname is already taken")
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: input.Email, PasswordHash: hashed}
	if s.mailer == nil {
		confirmedAt := s.now().UTC()
		user.EmailConfirmedAt = &confirmedAt
	}

	profile, err := s.accounts.CreateAccount(ctx, user, repository.CreateProfileInput{
		Name:            input.Name,
		DisplayNickname: input.DisplayNickname,
		Role:            models.RoleUser,
		ClimbingLevel:   input.ClimbingLevel,
		PreferredGym:    input.PreferredGym,
		ClimbingStyle:   input.ClimbingStyle,
	}, nil)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRegistered
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	result := &SignUpResult{User: user, Profile: profile, Next: PathLogin}
	if s.mailer != nil {
		if err := s.sendConfirmation(ctx, user, profile.Name); err != nil {
			slog.Error("confirmation_email_failed", "error", err, "user_id", user.ID)
		} else {
			result.ConfirmationSent = true
		}
	}
	return result, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, user *models.User, name string) error {
	token, err := utils.GenerateConfirmationToken(user.ID.String(), s.opts.JWTSecret, s.opts.ConfirmTTL)
	if err != nil {
		return err
	}
	link := s.opts.ConfirmURL + "?token=" + url.QueryEscape(token)
	return s.mailer.SendConfirmation(ctx, user.Email, name, link)
}

func (s *AuthService) SignIn(ctx context.Context, rawEmail, password string) (*SignInResult, error) {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return nil, err
	}

	if s.sessions != nil {
		failures, err := s.sessions.Failures(ctx, email)
		if err != nil {
			slog.Warn("login_throttle_unavailable", "error", err)
		} else if failures >= int64(s.opts.LoginMaxAttempts) {
			return nil, ErrRateLimited
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.registerFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		s.registerFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}
	if !user.EmailConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	if s.sessions != nil {
		if err := s.sessions.ClearFailures(ctx, email); err != nil {
			slog.Warn("login_throttle_reset_failed", "error", err)
		}
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) registerFailure(ctx context.Context, email string) {
	if s.sessions == nil {
		return
	}
	if _, err := s.sessions.RegisterFailure(ctx, email, s.opts.LoginLockout); err != nil {
		slog.Warn("login_throttle_record_failed", "error", err)
	}
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*SignInResult, error) {
	profile, err := s.profiles.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	token, err := utils.GenerateTokenWithTTL(user.ID.String(), profile.Role, s.opts.JWTSecret, s.opts.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.publish(session.EventSignedIn, user.ID)
	return &SignInResult{
		Token:   token,
		User:    user,
		Profile: profile,
		Next:    LandingPath(profile),
	}, nil
}

// LandingPath is where a freshly signed-in viewer goes.
func LandingPath(profile *models.Profile) string {
	if profile.IsAdmin() {
		return PathAdmin
	}
	return PathHome
}

// SignOut revokes the presented token. Failures are logged only.
func (s *AuthService) SignOut(ctx context.Context, claims *utils.Claims) {
	if claims == nil {
		return
	}
	if s.sessions != nil {
		if err := s.sessions.RevokeToken(ctx, claims.ID, claims.ExpiresIn(s.now())); err != nil {
			slog.Warn("sign_out_revoke_failed", "error", err, "user_id", claims.UserID)
		}
	}
	if userID, err := uuid.Parse(claims.UserID); err == nil {
		s.publish(session.EventSignedOut, userID)
	}
}

func (s *AuthService) ResendConfirmation(ctx context.Context, rawEmail string) error {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.EmailConfirmed() || s.mailer == nil {
		return nil
	}

	name := ""
	if profile, err := s.profiles.GetByID(ctx, user.ID); err == nil {
		name = profile.Name
	}
	return s.sendConfirmation(ctx, user, name)
}

func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ValidateConfirmationToken(strings.TrimSpace(token), s.opts.JWTSecret)
	if err != nil {
		return nil, invalid("token", "invalid or expired confirmation link")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, invalid("token", "invalid or expired confirmation link")
	}

	user, err := s.users.ConfirmEmail(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the password and signs the user out everywhere.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, password, confirm string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return invalid("password_confirm", "passwords do not match")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return err
	}

	s.revokeAll(ctx, userID)
	s.publish(session.EventSignedOut, userID)
	return nil
}

func (s *AuthService) revokeAll(ctx context.Context, userID uuid.UUID) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeUser(ctx, userID.String(), s.now(), s.opts.TokenTTL); err != nil {
		slog.Warn("global_sign_out_failed", "error", err, "user_id", userID)
	}
}

// DeleteAccount irreversibly removes the account and everything it owns.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err := s.users.DeleteAccount(ctx, userID); err != nil {
		return err
	}

	if profile != nil && profile.AvatarURL != nil && *profile.AvatarURL != "" && s.avatars != nil {
		if err := s.avatars.DeleteFile(ctx, *profile.AvatarURL); err != nil {
			slog.Warn("avatar_cleanup_failed", "error", err, "user_id", userID)
		}
	}

	s.revokeAll(ctx, userID)
	s.publish(session.EventAccountDeleted, userID)
	return nil
}

// SignInWithIdentity completes an OAuth sign-in, linking or creating the account.
func (s *AuthService) SignInWithIdentity(ctx context.Context, identity models.ExternalIdentity) (*SignInResult, error) {
	if identity.Provider == "" || identity.Subject == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByIdentity(ctx, identity.Provider, identity.Subject)
	if err == nil {
		return s.issueSession(ctx, user)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		email = fmt.Sprintf("%s-%s@users.noreply.doclimb.app", identity.Provider, identity.Subject)
	}

	user, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.LinkIdentity(ctx, user.ID, identity.Provider, identity.Subject); err != nil {
			return nil, err
		}
		return s.issueSession(ctx, user)
	case !errors.Is(err, pgx.ErrNoRows):
		return nil, err
	}

	nickname, err := s.freeNickname(ctx, identity.Name, email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = nickname
	}

	confirmedAt := s.now().UTC()
	user = &models.User{Email: email, EmailConfirmedAt: &confirmedAt}
	var avatar *string
	if identity.AvatarURL != "" {
		avatar = &identity.AvatarURL
	}
	if _, err := s.accounts.CreateAccount(ctx, user, repository.CreateProfileInput{
		Name:            name,
		DisplayNickname: nickname,
		Role:            models.RoleUser,
		AvatarURL:       avatar,
	}, &identity); err != nil {
		return nil, fmt.Errorf("create oauth account: %w", err)
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) freeNickname(ctx context.Context, name, email string) (string, error) {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}
	if utf8.RuneCountInString(base) > maxNicknameLength-5 {
		base = string([]rune(base)[:maxNicknameLength-5])
	}

	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		taken, err := s.profiles.NicknameTaken(ctx, candidate, nil)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:4]
	}
	return "", ErrConflict
}

// EnsureAdmin makes sure the configured administrator account exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, rawEmail, password string) error {
	email, err := normalizeEmail(rawEmail)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return s.profiles.SetRole(ctx, user.ID, models.RoleAdmin)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	if err := ValidatePassword(password); err != nil {
		return err
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	confirmedAt := s.now().UTC()
	user = &models.User{Email: email, PasswordHash: hashed, EmailConfirmedAt: &confirmedAt}
	nickname, err := s.freeNickname(ctx, "admin", email)
	if err != nil {
		return err
	}
	_, err = s.accounts.CreateAccount(ctx, user, repository.CreateProfileInput{
		Name:            "관리자",
		DisplayNickname: nickname,
		Role:            models.RoleAdmin,
	}, nil)
	return err
}

func (s *AuthService) publish(kind session.EventKind, userID uuid.UUID) {
	if s.events == nil {
		return
	}
	s.events.Publish(session.Event{Kind: kind, UserID: userID})
}
