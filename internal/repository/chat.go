package repository

import (
	"context"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

// AppendChatMessage adds one message to the user's advisor thread.
func (r *Repository) AppendChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (user_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query,
		msg.UserID,
		string(msg.Role),
		msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// GetRecentChatMessages returns the last limit messages of the user's
// thread in chronological order.
func (r *Repository) GetRecentChatMessages(ctx context.Context, userID int64, limit int) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM (
			SELECT * FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC`,
		userID, limit)
	return messages, err
}
