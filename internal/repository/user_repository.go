package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skill-swap/skillswap/internal/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Search      string
	Verified    *bool
	Banned      *bool
	Role        *domain.Role
	BrowsableBy *string
	Limit       int
	Offset      int
}

// UserCounts summarizes the user base for the dashboard.
type UserCounts struct {
	Total    int
	Verified int
	Banned   int
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// UpdateProfile writes only the columns a member may edit about themselves.
	UpdateProfile(ctx context.Context, user *domain.User) error
	SetAvatar(ctx context.Context, id, url string) (*domain.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	MarkEmailVerified(ctx context.Context, id string) error
	LinkGoogle(ctx context.Context, id, subject string, emailVerified bool, picture string) (*domain.User, error)
	SetVerified(ctx context.Context, id string, verified bool, at *time.Time) (*domain.User, error)
	SetBanned(ctx context.Context, id string, banned bool, at *time.Time) (*domain.User, error)
	SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	Counts(ctx context.Context) (UserCounts, error)
	CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, first_name, last_name, email, password_hash, google_subject, mobile, pincode,
               city, state, avatar_url, bio, skills_offered, skills_wanted, availability, profile_visible,
               role, email_verified, is_verified, verified_at, is_banned, banned_at, swaps_completed,
               created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (first_name, last_name, email, password_hash, google_subject, mobile, pincode,
                           city, state, avatar_url, bio, skills_offered, skills_wanted, availability,
                           profile_visible, role, email_verified)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
        RETURNING id, created_at, updated_at`

	availability, err := json.Marshal(user.Availability)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.GoogleSubject,
		user.Mobile,
		user.Pincode,
		user.City,
		user.State,
		user.AvatarURL,
		user.Bio,
		nonNil(user.SkillsOffered),
		nonNil(user.SkillsWanted),
		availability,
		user.ProfileVisible,
		user.Role,
		user.EmailVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapWriteError(err)
}

// UpdateProfile writes the member-editable columns and refreshes user from the stored row,
// so moderation fields always reflect the database.
func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET first_name=$1, last_name=$2, mobile=$3, pincode=$4, city=$5, state=$6,
            bio=$7, skills_offered=$8, skills_wanted=$9, availability=$10, profile_visible=$11,
            updated_at=NOW()
        WHERE id=$12
        RETURNING ` + userColumns

	availability, err := json.Marshal(user.Availability)
	if err != nil {
		return err
	}
	fresh, err := scanUser(r.db.QueryRow(ctx, query,
		user.FirstName,
		user.LastName,
		user.Mobile,
		user.Pincode,
		user.City,
		user.State,
		user.Bio,
		nonNil(user.SkillsOffered),
		nonNil(user.SkillsWanted),
		availability,
		user.ProfileVisible,
		user.ID,
	))
	if err != nil {
		return err
	}
	*user = *fresh
	return nil
}

func (r *userRepository) SetAvatar(ctx context.Context, id, url string) (*domain.User, error) {
	return r.fetchSingle(ctx, `UPDATE users SET avatar_url=$2, updated_at=NOW() WHERE id=$1 RETURNING `+userColumns, id, url)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1`, id, hash)
}

func (r *userRepository) MarkEmailVerified(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE users SET email_verified=TRUE, updated_at=NOW() WHERE id=$1`, id)
}

// LinkGoogle attaches a Google subject. The avatar is only filled when empty and
// email verification is never revoked.
func (r *userRepository) LinkGoogle(ctx context.Context, id, subject string, emailVerified bool, picture string) (*domain.User, error) {
	const query = `
        UPDATE users SET google_subject=$2, email_verified = email_verified OR $3,
            avatar_url = CASE WHEN avatar_url = '' THEN $4 ELSE avatar_url END, updated_at=NOW()
        WHERE id=$1
        RETURNING ` + userColumns
	user, err := r.fetchSingle(ctx, query, id, subject, emailVerified, picture)
	return user, mapWriteError(err)
}

// SetVerified toggles the verification badge. Verifying a banned user matches no row
// and reports pgx.ErrNoRows.
func (r *userRepository) SetVerified(ctx context.Context, id string, verified bool, at *time.Time) (*domain.User, error) {
	const query = `
        UPDATE users SET is_verified=$2, verified_at=$3, updated_at=NOW()
        WHERE id=$1 AND (NOT $2 OR NOT is_banned)
        RETURNING ` + userColumns
	return r.fetchSingle(ctx, query, id, verified, at)
}

func (r *userRepository) SetBanned(ctx context.Context, id string, banned bool, at *time.Time) (*domain.User, error) {
	const query = `
        UPDATE users SET is_banned=$2, banned_at=$3, updated_at=NOW()
        WHERE id=$1
        RETURNING ` + userColumns
	return r.fetchSingle(ctx, query, id, banned, at)
}

func (r *userRepository) SetRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.fetchSingle(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1 RETURNING `+userColumns, id, role)
}

func (r *userRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *userRepository) GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE google_subject=$1`, subject)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	var where whereBuilder

	if filter.BrowsableBy != nil {
		where.add("id <> $%d", *filter.BrowsableBy)
		where.addRaw("profile_visible AND NOT is_banned")
		where.addRaw("first_name <> '' AND last_name <> '' AND email <> ''")
		where.addRaw("(cardinality(skills_offered) > 0 OR cardinality(skills_wanted) > 0)")
	}
	if filter.Verified != nil {
		where.add("is_verified = $%d", *filter.Verified)
	}
	if filter.Banned != nil {
		where.add("is_banned = $%d", *filter.Banned)
	}
	if filter.Role != nil {
		where.add("role = $%d", *filter.Role)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		clause := `(first_name || ' ' || last_name) ILIKE $%[1]d
                OR array_to_string(skills_offered, ' ') ILIKE $%[1]d
                OR array_to_string(skills_wanted, ' ') ILIKE $%[1]d
                OR (city || ' ' || state) ILIKE $%[1]d`
		// Email is searchable from the admin listing only.
		if filter.BrowsableBy == nil {
			clause += ` OR email ILIKE $%[1]d`
		}
		where.add("("+clause+")", "%"+escapeLike(search)+"%")
	}

	limit, offset := pageBounds(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, where.String(), limit, offset)

	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) Counts(ctx context.Context) (UserCounts, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE is_verified),
               COUNT(*) FILTER (WHERE is_banned)
        FROM users`
	var counts UserCounts
	err := r.db.QueryRow(ctx, query).Scan(&counts.Total, &counts.Verified, &counts.Banned)
	return counts, err
}

func (r *userRepository) CreatedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, `SELECT created_at FROM users WHERE created_at >= $1 ORDER BY created_at`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		result = append(result, ts)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user         domain.User
		availability []byte
	)
	if err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.GoogleSubject,
		&user.Mobile,
		&user.Pincode,
		&user.City,
		&user.State,
		&user.AvatarURL,
		&user.Bio,
		&user.SkillsOffered,
		&user.SkillsWanted,
		&availability,
		&user.ProfileVisible,
		&user.Role,
		&user.EmailVerified,
		&user.IsVerified,
		&user.VerifiedAt,
		&user.IsBanned,
		&user.BannedAt,
		&user.SwapsCompleted,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(availability) > 0 {
		if err := json.Unmarshal(availability, &user.Availability); err != nil {
			return nil, fmt.Errorf("decode availability for user %s: %w", user.ID, err)
		}
	}
	return &user, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
