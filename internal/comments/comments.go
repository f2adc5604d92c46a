// Package comments stores the per-article comment threads with the
// approval workflow: comments from trusted users publish immediately,
// everyone else lands in the moderation queue.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alphadocs/alphadocs/internal/auth"
	"github.com/alphadocs/alphadocs/internal/db"
)

var (
	ErrMissingFields = errors.New("missing required fields")
	ErrDailyLimit    = errors.New("daily comment limit reached")
	ErrNotFound      = errors.New("comment not found")
	ErrNotApproved   = errors.New("user not approved")
)

// Comment statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// dailyLimit caps comments per user per day.
const dailyLimit = 10

const timeLayout = time.RFC3339

// Comment is one thread entry as exposed over the API.
type Comment struct {
	ID          string `json:"id"`
	ArticlePath string `json:"article_path"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp"`
	Status      string `json:"status,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// Store persists comments.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a comment store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// SetClock overrides the time source (testing).
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// ListApproved returns the published comments of one article, newest
// first.
func (s *Store) ListApproved(ctx context.Context, articlePath string) ([]Comment, error) {
	return s.list(ctx,
		`SELECT id, article_path, author, content, timestamp, status, user_agent
		 FROM comments WHERE article_path = ?1 AND status = ?2
		 ORDER BY timestamp DESC`, articlePath, StatusApproved)
}

// Pending returns the moderation queue, newest first.
func (s *Store) Pending(ctx context.Context) ([]Comment, error) {
	return s.list(ctx,
		`SELECT id, article_path, author, content, timestamp, status, user_agent
		 FROM comments WHERE status = ?1
		 ORDER BY timestamp DESC`, StatusPending)
}

// Add writes a comment from user. The status depends on the user's
// comment-review flag; at most dailyLimit comments per user per day.
func (s *Store) Add(ctx context.Context, user *auth.User, articlePath, content, ip, userAgent string) (*Comment, error) {
	if user == nil || !user.IsApproved {
		return nil, ErrNotApproved
	}
	if articlePath == "" || content == "" {
		return nil, ErrMissingFields
	}

	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var todays int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE user_id = ?1 AND timestamp >= ?2`,
		user.ID, dayStart.Format(timeLayout)).Scan(&todays)
	if err != nil {
		return nil, fmt.Errorf("checking comment rate: %w", err)
	}
	if todays >= dailyLimit {
		return nil, ErrDailyLimit
	}

	status := StatusApproved
	if user.CommentNeedsApproval {
		status = StatusPending
	}
	comment := &Comment{
		ID:          uuid.NewString(),
		ArticlePath: articlePath,
		Author:      user.Username,
		Content:     content,
		Timestamp:   now.Format(timeLayout),
		Status:      status,
		UserAgent:   userAgent,
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comments (id, article_path, content, user_id, author, ip_address, user_agent, status, timestamp)
		 VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9)`,
		comment.ID, comment.ArticlePath, comment.Content, user.ID, comment.Author,
		ip, comment.UserAgent, comment.Status, comment.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("storing comment: %w", err)
	}
	return comment, nil
}

// SetStatus moves a comment through the moderation workflow and
// records who reviewed it.
func (s *Store) SetStatus(ctx context.Context, commentID, status, reviewerID string) (*Comment, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE comments SET status = ?1, reviewed_by = ?2, reviewed_at = ?3 WHERE id = ?4`,
		status, reviewerID, s.now().UTC().Format(timeLayout), commentID)
	if err != nil {
		return nil, fmt.Errorf("updating comment status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.get(ctx, commentID)
}

// Delete removes a comment outright.
func (s *Store) Delete(ctx context.Context, commentID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?1`, commentID)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) get(ctx context.Context, id string) (*Comment, error) {
	var c Comment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, article_path, author, content, timestamp, status, user_agent
		 FROM comments WHERE id = ?1`, id).
		Scan(&c.ID, &c.ArticlePath, &c.Author, &c.Content, &c.Timestamp, &c.Status, &c.UserAgent)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading comment: %w", err)
	}
	return &c, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ArticlePath, &c.Author, &c.Content, &c.Timestamp, &c.Status, &c.UserAgent); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
