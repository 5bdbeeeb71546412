package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/repository"
)

var _ repository.MessageRepository = (*MessageRepo)(nil)

const messageSelect = `
	SELECT m.id, m.sender_id, m.receiver_id, m.text, m.is_read, m.is_edited,
		m.created_at, m.updated_at, s.name, s.avatar_url, r.name, r.avatar_url
	FROM messages m
	JOIN users s ON m.sender_id = s.id
	JOIN users r ON m.receiver_id = r.id`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, text, is_read, is_edited, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Text,
		msg.IsRead, msg.IsEdited, msg.CreatedAt, msg.UpdatedAt,
	)
	return err
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	msg, err := scanMessage(r.pool.QueryRow(ctx, messageSelect+" WHERE m.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return msg, err
}

func (r *MessageRepo) ListThread(ctx context.Context, userID, peerID string) ([]domain.Message, error) {
	query := messageSelect + `
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
			OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC, m.id ASC`

	rows, err := r.pool.Query(ctx, query, userID, peerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (peer_id)
				CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END AS peer_id,
				m.text, m.sender_id, m.receiver_id, m.created_at
			FROM messages m
			WHERE m.sender_id = $1 OR m.receiver_id = $1
			ORDER BY peer_id, m.created_at DESC, m.id DESC
		)
		SELECT l.peer_id, u.name, u.avatar_url,
			l.text, l.sender_id, l.receiver_id, l.created_at,
			(SELECT COUNT(*) FROM messages x
				WHERE x.sender_id = l.peer_id AND x.receiver_id = $1 AND NOT x.is_read) AS unread
		FROM latest l
		JOIN users u ON l.peer_id = u.id
		ORDER BY l.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var last domain.LastMessage
		if err := rows.Scan(
			&conv.User.ID, &conv.User.Name, &conv.User.AvatarURL,
			&last.Text, &last.SenderID, &last.ReceiverID, &last.CreatedAt,
			&conv.UnreadCount,
		); err != nil {
			return nil, err
		}
		conv.LastMessage = &last
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *MessageRepo) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_read = TRUE WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`,
		receiverID, senderID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, receiverID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND NOT is_read`, receiverID,
	).Scan(&n)
	return n, err
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	query := `UPDATE messages SET text = $1, is_edited = $2, updated_at = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, query, msg.Text, msg.IsEdited, msg.UpdatedAt, msg.ID)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *MessageRepo) DeleteConversation(ctx context.Context, userID, peerID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
			OR (sender_id = $2 AND receiver_id = $1)`,
		userID, peerID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var msg domain.Message
	sender := &domain.Profile{}
	receiver := &domain.Profile{}
	err := row.Scan(
		&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.IsRead, &msg.IsEdited,
		&msg.CreatedAt, &msg.UpdatedAt,
		&sender.Name, &sender.AvatarURL, &receiver.Name, &receiver.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	sender.ID = msg.SenderID
	receiver.ID = msg.ReceiverID
	msg.Sender = sender
	msg.Receiver = receiver
	return &msg, nil
}
