package repository

import (
	"context"
	"time"

	"github.com/skill-swap/skillswap/internal/domain"
)

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListConversation(ctx context.Context, userID, counterpartID string, limit, offset int) ([]domain.Message, error)
	MarkRead(ctx context.Context, recipientID, senderID string, at time.Time) (int64, error)
	Inbox(ctx context.Context, userID string) ([]domain.ConversationSummary, error)
}

type messageRepository struct {
	db DBTX
}

// NewMessageRepository creates repository.
func NewMessageRepository(db DBTX) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (sender_id, recipient_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, msg.SenderID, msg.RecipientID, msg.Body).Scan(&msg.ID, &msg.CreatedAt)
}

// ListConversation returns messages between two users, oldest first.
func (r *messageRepository) ListConversation(ctx context.Context, userID, counterpartID string, limit, offset int) ([]domain.Message, error) {
	const query = `
        SELECT id, sender_id, recipient_id, body, read_at, created_at
        FROM messages
        WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)
        ORDER BY created_at ASC
        LIMIT $3 OFFSET $4`
	limit, offset = pageBounds(limit, offset)
	rows, err := r.db.Query(ctx, query, userID, counterpartID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Body, &msg.ReadAt, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) MarkRead(ctx context.Context, recipientID, senderID string, at time.Time) (int64, error) {
	const query = `
        UPDATE messages SET read_at=$1
        WHERE recipient_id=$2 AND sender_id=$3 AND read_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, at, recipientID, senderID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// Inbox returns one summary per counterpart, most recent conversation first.
func (r *messageRepository) Inbox(ctx context.Context, userID string) ([]domain.ConversationSummary, error) {
	const query = `
        WITH latest AS (
            SELECT DISTINCT ON (counterpart)
                   CASE WHEN sender_id=$1 THEN recipient_id ELSE sender_id END AS counterpart,
                   id, sender_id, recipient_id, body, read_at, created_at
            FROM messages
            WHERE sender_id=$1 OR recipient_id=$1
            ORDER BY counterpart, created_at DESC
        )
        SELECT l.counterpart::text,
               TRIM(u.first_name || ' ' || u.last_name),
               l.id, l.sender_id, l.recipient_id, l.body, l.read_at, l.created_at,
               (SELECT COUNT(*) FROM messages m
                 WHERE m.recipient_id=$1 AND m.sender_id=l.counterpart AND m.read_at IS NULL)
        FROM latest l
        JOIN users u ON u.id = l.counterpart
        ORDER BY l.created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ConversationSummary
	for rows.Next() {
		var s domain.ConversationSummary
		if err := rows.Scan(
			&s.CounterpartID,
			&s.CounterpartName,
			&s.LastMessage.ID,
			&s.LastMessage.SenderID,
			&s.LastMessage.RecipientID,
			&s.LastMessage.Body,
			&s.LastMessage.ReadAt,
			&s.LastMessage.CreatedAt,
			&s.UnreadCount,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
