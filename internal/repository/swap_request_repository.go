package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skill-swap/skillswap/internal/domain"
)

// SwapRequestFilter narrows request listings.
type SwapRequestFilter struct {
	SenderID   *string
	ReceiverID *string
	// ParticipantID matches either side of the request.
	ParticipantID *string
	Status        *domain.RequestStatus
	Limit         int
	Offset        int
}

// SwapRequestRepository defines persistence for swap requests.
type SwapRequestRepository interface {
	Create(ctx context.Context, req *domain.SwapRequest) error
	GetByID(ctx context.Context, id string) (*domain.SwapRequest, error)
	List(ctx context.Context, filter SwapRequestFilter) ([]domain.SwapRequest, error)
	Respond(ctx context.Context, id string, status domain.RequestStatus, respondedAt time.Time) (*domain.SwapRequest, error)
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error)
}

type swapRequestRepository struct {
	db DBTX
}

// NewSwapRequestRepository creates a repository.
func NewSwapRequestRepository(db DBTX) SwapRequestRepository {
	return &swapRequestRepository{db: db}
}

const swapRequestColumns = `id, sender_id, sender_name, receiver_id, receiver_name, skill_offered, skill_wanted,
               message, status, created_at, updated_at, responded_at`

func (r *swapRequestRepository) Create(ctx context.Context, req *domain.SwapRequest) error {
	const query = `
        INSERT INTO swap_requests (sender_id, sender_name, receiver_id, receiver_name, skill_offered, skill_wanted, message, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	if req.Status == "" {
		req.Status = domain.RequestStatusPending
	}
	err := r.db.QueryRow(ctx, query,
		req.SenderID,
		req.SenderName,
		req.ReceiverID,
		req.ReceiverName,
		req.SkillOffered,
		req.SkillWanted,
		req.Message,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	return mapWriteError(err)
}

func (r *swapRequestRepository) GetByID(ctx context.Context, id string) (*domain.SwapRequest, error) {
	return scanSwapRequest(r.db.QueryRow(ctx, `SELECT `+swapRequestColumns+` FROM swap_requests WHERE id=$1`, id))
}

func (r *swapRequestRepository) List(ctx context.Context, filter SwapRequestFilter) ([]domain.SwapRequest, error) {
	var where whereBuilder
	if filter.SenderID != nil {
		where.add("sender_id = $%d", *filter.SenderID)
	}
	if filter.ReceiverID != nil {
		where.add("receiver_id = $%d", *filter.ReceiverID)
	}
	if filter.ParticipantID != nil {
		where.add("(sender_id = $%[1]d OR receiver_id = $%[1]d)", *filter.ParticipantID)
	}
	if filter.Status != nil {
		where.add("status = $%d", *filter.Status)
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		swapRequestColumns, where.String(), limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SwapRequest
	for rows.Next() {
		req, err := scanSwapRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

// Respond moves a pending request to status. Accepting credits a completed swap to both
// participants in the same transaction. A request that is no longer pending reports pgx.ErrNoRows.
func (r *swapRequestRepository) Respond(ctx context.Context, id string, status domain.RequestStatus, respondedAt time.Time) (*domain.SwapRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const update = `
        UPDATE swap_requests SET status=$1, responded_at=$2, updated_at=NOW()
        WHERE id=$3 AND status='pending'
        RETURNING ` + swapRequestColumns
	req, err := scanSwapRequest(tx.QueryRow(ctx, update, status, respondedAt, id))
	if err != nil {
		return nil, err
	}

	if status == domain.RequestStatusAccepted {
		const credit = `
            UPDATE users SET swaps_completed = swaps_completed + 1, updated_at=NOW()
            WHERE id IN ($1, $2)`
		if _, err := tx.Exec(ctx, credit, req.SenderID, req.ReceiverID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *swapRequestRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM swap_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *swapRequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM swap_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.RequestStatus]int, len(domain.AllRequestStatuses))
	for _, status := range domain.AllRequestStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var (
			status domain.RequestStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanSwapRequest(row pgx.Row) (*domain.SwapRequest, error) {
	var req domain.SwapRequest
	if err := row.Scan(
		&req.ID,
		&req.SenderID,
		&req.SenderName,
		&req.ReceiverID,
		&req.ReceiverName,
		&req.SkillOffered,
		&req.SkillWanted,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.RespondedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
