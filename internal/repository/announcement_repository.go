package repository

import (
	"context"

	"github.com/skill-swap/skillswap/internal/domain"
)

// AnnouncementRepository stores platform-wide announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	List(ctx context.Context, limit, offset int) ([]domain.Announcement, error)
}

type announcementRepository struct {
	db DBTX
}

// NewAnnouncementRepository creates repository.
func NewAnnouncementRepository(db DBTX) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	const query = `
        INSERT INTO announcements (author_id, title, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, a.AuthorID, a.Title, a.Body).Scan(&a.ID, &a.CreatedAt)
}

func (r *announcementRepository) List(ctx context.Context, limit, offset int) ([]domain.Announcement, error) {
	const query = `
        SELECT id, COALESCE(author_id::text, ''), title, body, created_at
        FROM announcements
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`
	limit, offset = pageBounds(limit, offset)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Body, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
