package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/repository"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

const (
	growthMonths          = 6
	maxAnnouncementTitle  = 120
	maxAnnouncementLength = 5000
)

var swapStatColors = map[domain.RequestStatus]string{
	domain.RequestStatusPending:  "#FFC107",
	domain.RequestStatusAccepted: "#4CAF50",
	domain.RequestStatusRejected: "#F44336",
}

// AdminService implements moderation and reporting for administrators.
type AdminService struct {
	users         repository.UserRepository
	requests      repository.SwapRequestRepository
	announcements repository.AnnouncementRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	now           func() time.Time
}

// AdminDependencies encapsulates repo requirements for the admin service.
type AdminDependencies struct {
	UserRepo         repository.UserRepository
	SwapRequestRepo  repository.SwapRequestRepository
	AnnouncementRepo repository.AnnouncementRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		users:         deps.UserRepo,
		requests:      deps.SwapRequestRepo,
		announcements: deps.AnnouncementRepo,
		dispatcher:    deps.Dispatcher,
		logger:        orNop(deps.Logger),
		now:           time.Now,
	}
}

// AdminUserFilter narrows the moderation list.
type AdminUserFilter struct {
	Search   string
	Verified *bool
	Banned   *bool
	Role     *domain.Role
}

// ListUsers returns members matching filter, newest first.
func (s *AdminService) ListUsers(ctx context.Context, filter AdminUserFilter, page Page) ([]domain.User, error) {
	page = page.Normalize()
	return s.users.List(ctx, repository.UserFilter{
		Search:   filter.Search,
		Verified: filter.Verified,
		Banned:   filter.Banned,
		Role:     filter.Role,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
}

// Verify marks a member as verified. Banned members must be unbanned first; the check
// and the write happen in one statement.
func (s *AdminService) Verify(ctx context.Context, id string) (*domain.User, error) {
	now := s.now().UTC()
	user, err := s.users.SetVerified(ctx, id, true, &now)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	existing, getErr := s.users.GetByID(ctx, id)
	if getErr != nil {
		return nil, notFound(getErr, "user")
	}
	if existing.IsBanned {
		return nil, apperrors.NewConflict("user is banned; unban first", nil)
	}
	return nil, notFound(err, "user")
}

// Unverify clears the verification badge.
func (s *AdminService) Unverify(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.SetVerified(ctx, id, false, nil)
	return user, notFound(err, "user")
}

// Ban blocks a member from signing in. Administrators cannot ban themselves.
func (s *AdminService) Ban(ctx context.Context, admin *domain.User, id string) (*domain.User, error) {
	if admin.ID == id {
		return nil, apperrors.NewForbidden("you cannot ban yourself")
	}
	now := s.now().UTC()
	user, err := s.users.SetBanned(ctx, id, true, &now)
	if err != nil {
		return nil, notFound(err, "user")
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventUserBanned, admin.ID, user.ID, events.UserBannedPayload{Email: user.Email}))
	return user, nil
}

// Unban lifts a ban.
func (s *AdminService) Unban(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.SetBanned(ctx, id, false, nil)
	return user, notFound(err, "user")
}

// SetAdmin grants the admin role.
func (s *AdminService) SetAdmin(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.SetRole(ctx, id, domain.RoleAdmin)
	return user, notFound(err, "user")
}

// RemoveAdmin revokes the admin role. Administrators cannot demote themselves.
func (s *AdminService) RemoveAdmin(ctx context.Context, admin *domain.User, id string) (*domain.User, error) {
	if admin.ID == id {
		return nil, apperrors.NewForbidden("you cannot remove your own admin role")
	}
	user, err := s.users.SetRole(ctx, id, domain.RoleUser)
	return user, notFound(err, "user")
}

// PromoteByEmail grants the admin role to the account registered with email.
func (s *AdminService) PromoteByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	if user.IsAdmin() {
		return user, nil
	}
	return s.SetAdmin(ctx, user.ID)
}

// Dashboard aggregates user and swap statistics.
func (s *AdminService) Dashboard(ctx context.Context) (*domain.DashboardData, error) {
	counts, err := s.users.Counts(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.requests.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	windowStart := monthStart(now, -(growthMonths - 1))
	created, err := s.users.CreatedSince(ctx, windowStart)
	if err != nil {
		return nil, err
	}

	unverified := counts.Total - counts.Verified - counts.Banned
	if unverified < 0 {
		unverified = 0
	}

	stats := make([]domain.SwapStat, 0, len(domain.AllRequestStatuses))
	for _, status := range domain.AllRequestStatuses {
		name := string(status)
		stats = append(stats, domain.SwapStat{
			Name:  strings.ToUpper(name[:1]) + name[1:],
			Count: byStatus[status],
			Color: swapStatColors[status],
		})
	}

	return &domain.DashboardData{
		SwapStats:       stats,
		UserGrowth:      BuildUserGrowth(created, now),
		TotalUsers:      counts.Total,
		VerifiedUsers:   counts.Verified,
		BannedUsers:     counts.Banned,
		UnverifiedUsers: unverified,
	}, nil
}

// BuildUserGrowth buckets sign-up times into the last six calendar months ending
// at now and returns running totals, oldest month first.
func BuildUserGrowth(createdAt []time.Time, now time.Time) []domain.UserGrowthPoint {
	points := make([]domain.UserGrowthPoint, growthMonths)
	starts := make([]time.Time, growthMonths)
	for i := 0; i < growthMonths; i++ {
		starts[i] = monthStart(now, i-(growthMonths-1))
		points[i].Month = starts[i].Format("Jan")
	}

	counts := make([]int, growthMonths)
	for _, ts := range createdAt {
		ts = ts.In(now.Location())
		for i := growthMonths - 1; i >= 0; i-- {
			if !ts.Before(starts[i]) {
				if i < growthMonths-1 || ts.Before(monthStart(now, 1)) {
					counts[i]++
				}
				break
			}
		}
	}

	running := 0
	for i := range points {
		running += counts[i]
		points[i].Users = running
	}
	return points
}

func monthStart(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset), 1, 0, 0, 0, 0, t.Location())
}

// Announce posts a platform-wide announcement.
func (s *AdminService) Announce(ctx context.Context, admin *domain.User, title, body string) (*domain.Announcement, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)

	fields := map[string]any{}
	switch {
	case title == "":
		fields["title"] = "required"
	case utf8.RuneCountInString(title) > maxAnnouncementTitle:
		fields["title"] = "too long"
	}
	switch {
	case body == "":
		fields["body"] = "required"
	case utf8.RuneCountInString(body) > maxAnnouncementLength:
		fields["body"] = "too long"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid announcement", fields)
	}

	a := &domain.Announcement{AuthorID: admin.ID, Title: title, Body: body}
	if err := s.announcements.Create(ctx, a); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventAnnouncementPosted, admin.ID, a.ID, events.AnnouncementPayload{
		AnnouncementID: a.ID,
		Title:          a.Title,
	}))
	return a, nil
}

// ListAnnouncements returns announcements newest first.
func (s *AdminService) ListAnnouncements(ctx context.Context, page Page) ([]domain.Announcement, error) {
	page = page.Normalize()
	return s.announcements.List(ctx, page.Limit, page.Offset)
}
