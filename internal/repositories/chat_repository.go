package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"realtime-service/internal/models"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrSelfChat     = errors.New("cannot create chat with self")
)

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateOrGetChat(ctx context.Context, userID string, friendID string) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
	Participants(ctx context.Context, chatID string) ([]string, error)
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// CreateOrGetChat returns the direct chat between two users, creating it on first use.
func (r *ChatRepo) CreateOrGetChat(ctx context.Context, userID string, friendID string) (models.Chat, error) {
	if userID == friendID {
		return models.Chat{}, ErrSelfChat
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	err = tx.GetContext(ctx, &chat, `SELECT c.id, c.created_at FROM chats c
        JOIN chat_participants a ON a.chat_id = c.id AND a.user_id = $1
        JOIN chat_participants b ON b.chat_id = c.id AND b.user_id = $2
        LIMIT 1`, userID, friendID)
	if err == nil {
		return chat, tx.Commit()
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	if err := tx.GetContext(ctx, &chat, `INSERT INTO chats DEFAULT VALUES RETURNING id, created_at`); err != nil {
		return models.Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id) SELECT $1, unnest($2::uuid[])`,
		chat.ID, pq.Array([]string{userID, friendID})); err != nil {
		return models.Chat{}, fmt.Errorf("insert participants: %w", err)
	}
	return chat, tx.Commit()
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID string, userID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// Participants lists the user ids of a chat.
func (r *ChatRepo) Participants(ctx context.Context, chatID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM chat_participants WHERE chat_id=$1 ORDER BY user_id`, chatID); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrChatNotFound
	}
	return ids, nil
}

// ListChats returns the user's chats, most recently active first.
func (r *ChatRepo) ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error) {
	query := `SELECT c.id, COALESCE(MAX(m.created_at), c.created_at) AS last_message_at
        FROM chats c
        JOIN chat_participants p ON p.chat_id = c.id AND p.user_id = $1
        LEFT JOIN messages m ON m.chat_id = c.id
        GROUP BY c.id, c.created_at
        ORDER BY last_message_at DESC`
	var chats []models.ChatSummary
	if err := r.db.SelectContext(ctx, &chats, query, userID); err != nil {
		return nil, err
	}
	for i := range chats {
		participants, err := r.Participants(ctx, chats[i].ChatID)
		if err != nil {
			return nil, err
		}
		chats[i].Participants = participants
	}
	return chats, nil
}
