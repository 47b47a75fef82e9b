package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hazardwatch/ticket-engine/internal/domain"
)

// MessageRepository manages ticket thread messages. Messages are append-only;
// there is no update or delete path.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListByTicket returns the ticket's messages in chronological order,
	// optionally restricted to the given thread channels. A nil or empty
	// threads slice returns every channel.
	ListByTicket(ctx context.Context, ticketID string, threads []domain.Thread) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, sender_id, sender_role, thread, content, is_internal)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.SenderID,
		msg.SenderRole,
		msg.Thread,
		msg.Content,
		msg.IsInternal,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string, threads []domain.Thread) ([]domain.Message, error) {
	base := `SELECT id, ticket_id, sender_id, sender_role, thread, content, is_internal, created_at
        FROM ticket_messages WHERE ticket_id=$1`
	args := []any{ticketID}
	if len(threads) > 0 {
		placeholders := make([]string, len(threads))
		for i, thread := range threads {
			args = append(args, thread)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		base += fmt.Sprintf(" AND thread IN (%s)", strings.Join(placeholders, ","))
	}
	base += " ORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, base, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.SenderID,
			&msg.SenderRole,
			&msg.Thread,
			&msg.Content,
			&msg.IsInternal,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
