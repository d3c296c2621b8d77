package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/skill-swap/skillswap/internal/domain"
)

// AccountTokenRepository manages single-use password reset and email verification tokens.
type AccountTokenRepository interface {
	Create(ctx context.Context, token *domain.AccountToken) error
	GetByToken(ctx context.Context, token string) (*domain.AccountToken, error)
	MarkUsed(ctx context.Context, id string) error
}

type accountTokenRepository struct {
	db DBTX
}

// NewAccountTokenRepository constructs repository.
func NewAccountTokenRepository(db DBTX) AccountTokenRepository {
	return &accountTokenRepository{db: db}
}

func (r *accountTokenRepository) Create(ctx context.Context, token *domain.AccountToken) error {
	const query = `
        INSERT INTO account_tokens (user_id, purpose, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		token.UserID,
		token.Purpose,
		token.Token,
		token.ExpiresAt,
	).Scan(&token.ID, &token.CreatedAt)
}

func (r *accountTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*domain.AccountToken, error) {
	const query = `
        SELECT id, user_id, purpose, token, expires_at, used_at, created_at
        FROM account_tokens WHERE token=$1`
	var token domain.AccountToken
	if err := r.db.QueryRow(ctx, query, tokenStr).Scan(
		&token.ID,
		&token.UserID,
		&token.Purpose,
		&token.Token,
		&token.ExpiresAt,
		&token.UsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}

// MarkUsed consumes the token. A token that was already used reports pgx.ErrNoRows.
func (r *accountTokenRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE account_tokens SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
