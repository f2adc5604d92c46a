// Package auth owns user accounts: registration with admin approval,
// login with JWT issuance, password changes, and the moderation
// operations the admin console drives.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/alphadocs/alphadocs/internal/db"
)

var (
	ErrMissingFields      = errors.New("username and password required")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotApproved        = errors.New("account not yet approved by admin")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrUserNotFound       = errors.New("user not found")
	ErrRateLimited        = errors.New("too many login attempts")
	ErrAdminImmutable     = errors.New("cannot modify admin user")
)

const (
	minPasswordLength = 6
	tokenTTL          = 7 * 24 * time.Hour
	timeLayout        = time.RFC3339
)

// Login attempts per IP: small sustained rate with a burst for typos.
const (
	loginRateInterval = 2 * time.Second
	loginRateBurst    = 5
)

// User is the account shape exposed over the API. The password hash
// never leaves this package.
type User struct {
	ID                   string `json:"id"`
	Username             string `json:"username"`
	Email                string `json:"email,omitempty"`
	IsAdmin              bool   `json:"is_admin"`
	IsApproved           bool   `json:"is_approved"`
	CommentNeedsApproval bool   `json:"comment_needs_approval"`
	CreatedAt            string `json:"created_at,omitempty"`
	LastLogin            string `json:"last_login,omitempty"`
}

// Service implements account operations on top of the users table.
type Service struct {
	db     *db.DB
	secret []byte
	now    func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewService creates the auth service. The secret signs session
// tokens and must be stable across restarts.
func NewService(database *db.DB, secret string) *Service {
	return &Service{
		db:       database,
		secret:   []byte(secret),
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// SetClock overrides the time source (testing).
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Register creates an account. Approval and comment-review flags come
// from the site configuration. The returned message tells the caller
// whether the account is immediately usable.
func (s *Service) Register(ctx context.Context, username, email, password string) (*User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return nil, "", ErrMissingFields
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ?1`, username).Scan(&count); err != nil {
		return nil, "", fmt.Errorf("checking username: %w", err)
	}
	if count > 0 {
		return nil, "", ErrUsernameTaken
	}
	if email != "" {
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE email = ?1`, email).Scan(&count); err != nil {
			return nil, "", fmt.Errorf("checking email: %w", err)
		}
		if count > 0 {
			return nil, "", ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	autoApprove, err := s.db.ConfigBool(ctx, db.ConfigAutoApproveUsers)
	if err != nil {
		return nil, "", err
	}
	autoApproveComments, err := s.db.ConfigBool(ctx, db.ConfigAutoApproveComments)
	if err != nil {
		return nil, "", err
	}

	user := &User{
		ID:                   uuid.NewString(),
		Username:             username,
		Email:                email,
		IsApproved:           autoApprove,
		CommentNeedsApproval: !autoApproveComments,
		CreatedAt:            s.now().UTC().Format(timeLayout),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, is_admin, is_approved, comment_needs_approval, created_at)
		 VALUES (?1, ?2, ?3, ?4, 0, ?5, ?6, ?7)`,
		user.ID, user.Username, user.Email, string(hash),
		boolInt(user.IsApproved), boolInt(user.CommentNeedsApproval), user.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	message := "Registration successful, waiting for admin approval"
	if user.IsApproved {
		message = "Registration successful"
	}
	return user, message, nil
}

// Login verifies credentials and issues a session token. Attempts are
// rate limited per IP before any database work happens.
func (s *Service) Login(ctx context.Context, username, password, ip string) (*User, string, error) {
	if username == "" || password == "" {
		return nil, "", ErrMissingFields
	}
	if !s.allowLogin(ip) {
		return nil, "", ErrRateLimited
	}

	user, hash, err := s.userWithHash(ctx, `username = ?1`, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsApproved {
		return nil, "", ErrNotApproved
	}

	user.LastLogin = s.now().UTC().Format(timeLayout)
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = ?1 WHERE id = ?2`, user.LastLogin, user.ID); err != nil {
		return nil, "", fmt.Errorf("updating last login: %w", err)
	}

	token, err := s.createToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ChangePassword rotates a password after verifying the old one.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	_, hash, err := s.userWithHash(ctx, `id = ?1`, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?1 WHERE id = ?2`, string(newHash), userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// GetUser loads one user by id.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	user, _, err := s.userWithHash(ctx, `id = ?1`, id)
	return user, err
}

// ListUsers returns every account, newest first.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, email, is_admin, is_approved, comment_needs_approval, created_at, COALESCE(last_login, '')
		 FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		var u User
		var isAdmin, isApproved, needsApproval int
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &isAdmin, &isApproved, &needsApproval, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.IsAdmin = isAdmin != 0
		u.IsApproved = isApproved != 0
		u.CommentNeedsApproval = needsApproval != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetApproval approves or rejects an account. Admin accounts cannot be
// rejected.
func (s *Service) SetApproval(ctx context.Context, userID string, approved bool) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin && !approved {
		return nil, ErrAdminImmutable
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET is_approved = ?1 WHERE id = ?2`, boolInt(approved), userID); err != nil {
		return nil, fmt.Errorf("updating approval: %w", err)
	}
	user.IsApproved = approved
	return user, nil
}

// Permissions are the per-user moderation switches. Nil fields are
// left unchanged.
type Permissions struct {
	CommentNeedsApproval *bool `json:"comment_needs_approval"`
	IsAdmin              *bool `json:"is_admin"`
}

// SetPermissions updates the moderation switches of one user.
func (s *Service) SetPermissions(ctx context.Context, userID string, perms Permissions) (*User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if perms.CommentNeedsApproval != nil {
		user.CommentNeedsApproval = *perms.CommentNeedsApproval
	}
	if perms.IsAdmin != nil {
		user.IsAdmin = *perms.IsAdmin
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET comment_needs_approval = ?1, is_admin = ?2 WHERE id = ?3`,
		boolInt(user.CommentNeedsApproval), boolInt(user.IsAdmin), userID)
	if err != nil {
		return nil, fmt.Errorf("updating permissions: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account and everything it wrote.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE user_id = ?1`, userID); err != nil {
		return fmt.Errorf("deleting user comments: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?1`, userID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

func (s *Service) userWithHash(ctx context.Context, where string, arg any) (*User, string, error) {
	var u User
	var hash string
	var isAdmin, isApproved, needsApproval int
	var lastLogin sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, is_admin, is_approved, comment_needs_approval, created_at, last_login
		 FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &hash, &isAdmin, &isApproved, &needsApproval, &u.CreatedAt, &lastLogin)
	if err == sql.ErrNoRows {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading user: %w", err)
	}
	u.IsAdmin = isAdmin != 0
	u.IsApproved = isApproved != 0
	u.CommentNeedsApproval = needsApproval != 0
	u.LastLogin = lastLogin.String
	return &u, hash, nil
}

// allowLogin applies the per-IP login limiter.
func (s *Service) allowLogin(ip string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	limiter, ok := s.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(loginRateInterval), loginRateBurst)
		s.limiters[ip] = limiter
	}
	return limiter.Allow()
}

// createToken signs a session token carrying the user id and admin bit.
func (s *Service) createToken(user *User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":      user.ID,
		"is_admin": user.IsAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// parseToken validates a session token and returns the subject id.
func (s *Service) parseToken(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("parsing token: %w", err)
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
