package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hazardwatch/ticket-engine/internal/domain"
)

// ErrVersionConflict signals a lost optimistic-concurrency race: the ticket
// row moved to a newer version between read and write.
var ErrVersionConflict = errors.New("ticket version conflict")

// TicketFilter captures listing parameters for dashboards.
type TicketFilter struct {
	ReporterID  *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Update performs a
// version-checked write; every mutation of a ticket goes through it.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListUnresolved(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, report_id, title, hazard_type, latitude, longitude, address,
               description, status, priority, reporter_id, assigned_analyst_id, assigned_authority_id,
               participants, response_due, resolution_due, first_response_at, resolved_at, closed_at,
               escalated_at, is_escalated, escalation_reason, resolution_notes,
               verification_score, threat_level, version, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	participants, err := json.Marshal(ticket.Participants)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (external_key, report_id, title, hazard_type, latitude, longitude, address,
            description, status, priority, reporter_id, assigned_analyst_id, assigned_authority_id,
            participants, response_due, resolution_due, is_escalated, escalation_reason, resolution_notes,
            verification_score, threat_level, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,1)
        RETURNING id, version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.ReportID,
		ticket.Title,
		ticket.HazardType,
		ticket.Location.Latitude,
		ticket.Location.Longitude,
		ticket.Location.Address,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ReporterID,
		ticket.AssignedAnalystID,
		ticket.AssignedAuthorityID,
		participants,
		ticket.ResponseDue,
		ticket.ResolutionDue,
		ticket.IsEscalated,
		ticket.EscalationReason,
		ticket.ResolutionNotes,
		ticket.Metadata.VerificationScore,
		ticket.Metadata.ThreatLevel,
	).Scan(&ticket.ID, &ticket.Version, &ticket.CreatedAt, &ticket.UpdatedAt)
}

// Update writes the ticket only when the stored version still matches the
// one read by the caller, then bumps it. Zero affected rows on an existing
// ticket means the caller lost a serialized-mutation race.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	participants, err := json.Marshal(ticket.Participants)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET status=$1, priority=$2, assigned_analyst_id=$3, assigned_authority_id=$4,
            participants=$5, first_response_at=$6, resolved_at=$7, closed_at=$8, escalated_at=$9,
            is_escalated=$10, escalation_reason=$11, resolution_notes=$12,
            version=version+1, updated_at=NOW()
        WHERE id=$13 AND version=$14`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedAnalystID,
		ticket.AssignedAuthorityID,
		participants,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.EscalatedAt,
		ticket.IsEscalated,
		ticket.EscalationReason,
		ticket.ResolutionNotes,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, ticket.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	ticket.Version++
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE external_key=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanTicketRow(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("reporter_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		placeholder := len(args)
		clauses = append(clauses, fmt.Sprintf("(assigned_analyst_id=$%d OR assigned_authority_id=$%d)", placeholder, placeholder))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// ListUnresolved returns every ticket the SLA monitor must evaluate.
func (r *ticketRepository) ListUnresolved(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE status NOT IN ($1,$2) ORDER BY created_at ASC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved, domain.TicketStatusClosed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var participants []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.ReportID,
		&ticket.Title,
		&ticket.HazardType,
		&ticket.Location.Latitude,
		&ticket.Location.Longitude,
		&ticket.Location.Address,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ReporterID,
		&ticket.AssignedAnalystID,
		&ticket.AssignedAuthorityID,
		&participants,
		&ticket.ResponseDue,
		&ticket.ResolutionDue,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.EscalatedAt,
		&ticket.IsEscalated,
		&ticket.EscalationReason,
		&ticket.ResolutionNotes,
		&ticket.Metadata.VerificationScore,
		&ticket.Metadata.ThreatLevel,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(participants) > 0 {
		if err := json.Unmarshal(participants, &ticket.Participants); err != nil {
			return nil, err
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
