package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"realtime-service/internal/models"
)

var (
	ErrFriendRequestNotFound = errors.New("friend request not found")
	ErrFriendRequestExists   = errors.New("friend request already pending")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrNotFriends            = errors.New("users are not friends")
	ErrSelfFriend            = errors.New("cannot befriend self")
)

// FriendRepository manages friend requests and friendships.
type FriendRepository interface {
	CreateRequest(ctx context.Context, fromID string, toID string) (models.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID string, userID string) (models.FriendRequest, error)
	CancelRequest(ctx context.Context, requestID string, userID string) (models.FriendRequest, error)
	RemoveFriend(ctx context.Context, userID string, friendID string) error
	AreFriends(ctx context.Context, userID string, friendID string) (bool, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

const friendRequestColumns = `id, from_id, to_id, status, created_at`

func (r *FriendRepo) CreateRequest(ctx context.Context, fromID string, toID string) (models.FriendRequest, error) {
	if fromID == toID {
		return models.FriendRequest{}, ErrSelfFriend
	}
	friends, err := r.AreFriends(ctx, fromID, toID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if friends {
		return models.FriendRequest{}, ErrAlreadyFriends
	}

	var req models.FriendRequest
	err = r.db.GetContext(ctx, &req, `INSERT INTO friend_requests (from_id, to_id) VALUES ($1, $2)
        RETURNING `+friendRequestColumns, fromID, toID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return models.FriendRequest{}, ErrFriendRequestExists
	}
	return req, err
}

// AcceptRequest lets the recipient accept a pending request and records the
// friendship in both directions.
func (r *FriendRepo) AcceptRequest(ctx context.Context, requestID string, userID string) (models.FriendRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.FriendRequest{}, err
	}
	defer tx.Rollback()

	var req models.FriendRequest
	err = tx.GetContext(ctx, &req, `UPDATE friend_requests SET status=$3
        WHERE id=$1 AND to_id=$2 AND status='pending' RETURNING `+friendRequestColumns,
		requestID, userID, models.FriendRequestAccepted)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrFriendRequestNotFound
	}
	if err != nil {
		return models.FriendRequest{}, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2), ($2, $1)
        ON CONFLICT DO NOTHING`, req.FromID, req.ToID); err != nil {
		return models.FriendRequest{}, err
	}
	return req, tx.Commit()
}

// CancelRequest withdraws (sender) or declines (recipient) a pending request.
func (r *FriendRepo) CancelRequest(ctx context.Context, requestID string, userID string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req, `UPDATE friend_requests SET status=$3
        WHERE id=$1 AND (from_id=$2 OR to_id=$2) AND status='pending' RETURNING `+friendRequestColumns,
		requestID, userID, models.FriendRequestCanceled)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrFriendRequestNotFound
	}
	return req, err
}

func (r *FriendRepo) RemoveFriend(ctx context.Context, userID string, friendID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friendships
        WHERE (user_id=$1 AND friend_id=$2) OR (user_id=$2 AND friend_id=$1)`, userID, friendID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFriends
	}
	return nil
}

func (r *FriendRepo) AreFriends(ctx context.Context, userID string, friendID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id=$1 AND friend_id=$2)`, userID, friendID)
	return exists, err
}
