package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for chat messages and their read receipts.
type MessageRepository interface {
	CreateChatMessage(ctx context.Context, chatID string, senderID string, content string) (models.Message, error)
	GetChatMessages(ctx context.Context, chatID string) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID string) (models.Message, error)
	MarkChatRead(ctx context.Context, chatID string, readerID string) (int64, error)
	UnreadCounts(ctx context.Context, userID string) ([]models.UnreadCount, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateChatMessage stores a message in a chat.
func (r *MessageRepo) CreateChatMessage(ctx context.Context, chatID string, senderID string, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)
        RETURNING id, chat_id, sender_id, content, created_at`, chatID, senderID, content)
	msg.ReadBy = []models.ReadReceipt{}
	return msg, err
}

type receiptRow struct {
	MessageID string    `db:"message_id"`
	UserID    string    `db:"user_id"`
	ReadAt    time.Time `db:"read_at"`
}

// GetChatMessages returns the chat history in order with read receipts attached.
func (r *MessageRepo) GetChatMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.SelectContext(ctx, &msgs, `SELECT id, chat_id, sender_id, content, created_at
        FROM messages WHERE chat_id=$1 ORDER BY created_at ASC`, chatID); err != nil {
		return nil, err
	}

	var receipts []receiptRow
	if err := r.db.SelectContext(ctx, &receipts, `SELECT mr.message_id, mr.user_id, mr.read_at
        FROM message_reads mr JOIN messages m ON m.id = mr.message_id
        WHERE m.chat_id=$1 ORDER BY mr.read_at ASC`, chatID); err != nil {
		return nil, err
	}
	return attachReceipts(msgs, receipts), nil
}

func attachReceipts(msgs []models.Message, receipts []receiptRow) []models.Message {
	byMessage := make(map[string][]models.ReadReceipt, len(msgs))
	for _, rr := range receipts {
		byMessage[rr.MessageID] = append(byMessage[rr.MessageID], models.ReadReceipt{User: rr.UserID, ReadAt: rr.ReadAt})
	}
	for i := range msgs {
		msgs[i].ReadBy = byMessage[msgs[i].ID]
		if msgs[i].ReadBy == nil {
			msgs[i].ReadBy = []models.ReadReceipt{}
		}
	}
	return msgs
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, chat_id, sender_id, content, created_at FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkChatRead adds a receipt for readerID to every message in the chat the
// reader did not author and has not read yet. It returns the number of new receipts.
func (r *MessageRepo) MarkChatRead(ctx context.Context, chatID string, readerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO message_reads (message_id, user_id)
        SELECT id, $2 FROM messages WHERE chat_id=$1 AND sender_id <> $2
        ON CONFLICT (message_id, user_id) DO NOTHING`, chatID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCounts returns, per chat of the user, how many messages from others lack the user's receipt.
func (r *MessageRepo) UnreadCounts(ctx context.Context, userID string) ([]models.UnreadCount, error) {
	query := `SELECT m.chat_id, COUNT(*) AS unread
        FROM messages m
        JOIN chat_participants p ON p.chat_id = m.chat_id AND p.user_id = $1
        LEFT JOIN message_reads mr ON mr.message_id = m.id AND mr.user_id = $1
        WHERE m.sender_id <> $1 AND mr.message_id IS NULL
        GROUP BY m.chat_id`
	var counts []models.UnreadCount
	err := r.db.SelectContext(ctx, &counts, query, userID)
	return counts, err
}
