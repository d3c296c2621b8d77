package service

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/config"
	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/location"
	"github.com/skill-swap/skillswap/internal/repository"
	"github.com/skill-swap/skillswap/internal/storage"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

const (
	maxBioLength   = 500
	maxSkills      = 20
	maxSkillLength = 50
	maxNameLength  = 50
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// ProfileService manages the caller's own profile and discovery of other members.
type ProfileService struct {
	users   repository.UserRepository
	store   storage.ObjectStore
	locator Locator
	media   config.MediaConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewProfileService constructs the service. store may be nil when uploads are disabled.
func NewProfileService(users repository.UserRepository, store storage.ObjectStore, locator Locator, media config.MediaConfig, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		users:   users,
		store:   store,
		locator: locator,
		media:   media,
		logger:  orNop(logger),
		now:     time.Now,
	}
}

// ProfilePatch holds optional profile changes; nil fields are left untouched.
type ProfilePatch struct {
	FirstName      *string
	LastName       *string
	Mobile         *string
	Pincode        *string
	City           *string
	State          *string
	Bio            *string
	SkillsOffered  *[]string
	SkillsWanted   *[]string
	Availability   *domain.Availability
	ProfileVisible *bool
}

// ProfileView is what a viewer may see of another member.
type ProfileView struct {
	User       *domain.User
	Restricted bool
}

// GetOwn reloads the caller's profile.
func (s *ProfileService) GetOwn(ctx context.Context, user *domain.User) (*domain.User, error) {
	fresh, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return fresh, nil
}

// Update applies patch to the caller's profile. A changed pincode re-resolves city
// and state; when the lookup fails the submitted city and state are kept.
func (s *ProfileService) Update(ctx context.Context, user *domain.User, patch ProfilePatch) (*domain.User, error) {
	current, err := s.GetOwn(ctx, user)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	setName := func(dst *string, val *string, key string) {
		if val == nil {
			return
		}
		v := strings.TrimSpace(*val)
		switch {
		case v == "":
			fields[key] = "required"
		case utf8.RuneCountInString(v) > maxNameLength:
			fields[key] = fmt.Sprintf("must be at most %d characters", maxNameLength)
		default:
			*dst = v
		}
	}
	setName(&current.FirstName, patch.FirstName, "first_name")
	setName(&current.LastName, patch.LastName, "last_name")

	if patch.Mobile != nil {
		mobile := strings.ReplaceAll(strings.TrimSpace(*patch.Mobile), " ", "")
		if mobile != "" && !mobilePattern.MatchString(mobile) {
			fields["mobile"] = "must be 10 to 15 digits"
		} else {
			current.Mobile = mobile
		}
	}
	if patch.Bio != nil {
		bio := strings.TrimSpace(*patch.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			fields["bio"] = fmt.Sprintf("must be at most %d characters", maxBioLength)
		} else {
			current.Bio = bio
		}
	}
	if patch.SkillsOffered != nil {
		skills, err := validateSkills(*patch.SkillsOffered)
		if err != "" {
			fields["skills_offered"] = err
		} else {
			current.SkillsOffered = skills
		}
	}
	if patch.SkillsWanted != nil {
		skills, err := validateSkills(*patch.SkillsWanted)
		if err != "" {
			fields["skills_wanted"] = err
		} else {
			current.SkillsWanted = skills
		}
	}
	if patch.Availability != nil {
		current.Availability = *patch.Availability
	}
	if patch.ProfileVisible != nil {
		current.ProfileVisible = *patch.ProfileVisible
	}
	if patch.City != nil {
		current.City = strings.TrimSpace(*patch.City)
	}
	if patch.State != nil {
		current.State = strings.TrimSpace(*patch.State)
	}

	if patch.Pincode != nil {
		pincode := strings.TrimSpace(*patch.Pincode)
		switch {
		case pincode == "":
			current.Pincode = ""
		case !location.IsValidPincode(pincode):
			fields["pincode"] = "must be a 6 digit postal code"
		case pincode != current.Pincode:
			current.Pincode = pincode
			s.resolveLocation(ctx, current)
		}
	}

	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid profile", fields)
	}

	if err := s.users.UpdateProfile(ctx, current); err != nil {
		return nil, notFound(err, "user")
	}
	return current, nil
}

func validateSkills(raw []string) ([]string, string) {
	skills := domain.NormalizeSkills(raw)
	if len(skills) > maxSkills {
		return nil, fmt.Sprintf("at most %d skills", maxSkills)
	}
	for _, skill := range skills {
		if utf8.RuneCountInString(skill) > maxSkillLength {
			return nil, fmt.Sprintf("each skill must be at most %d characters", maxSkillLength)
		}
	}
	return skills, ""
}

func (s *ProfileService) resolveLocation(ctx context.Context, user *domain.User) {
	if s.locator == nil {
		return
	}
	loc, err := s.locator.Resolve(ctx, user.Pincode)
	if err != nil {
		s.logger.Info("keeping submitted location", zap.String("pincode", user.Pincode), zap.Error(err))
		return
	}
	user.City = loc.City
	user.State = loc.State
}

// Delete removes the caller's account. Requests and messages go with it through
// foreign key cascades; the avatar object is removed best effort.
func (s *ProfileService) Delete(ctx context.Context, user *domain.User) error {
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return notFound(err, "user")
	}
	s.removeAvatar(ctx, user.AvatarURL)
	return nil
}

// UploadAvatar stores a new profile image and records its public URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, user *domain.User, filename string, size int64, r io.Reader) (*domain.User, error) {
	if s.store == nil {
		return nil, apperrors.NewDomainError("NOT_CONFIGURED", "image uploads are not configured", 501, nil)
	}
	ext, err := storage.ValidateImage(s.media, filename, size)
	if err != nil {
		return nil, err
	}

	current, err := s.GetOwn(ctx, user)
	if err != nil {
		return nil, err
	}
	previous := current.AvatarURL

	key := storage.AvatarKey(current.ID, filename, ext, s.now())
	url, err := s.store.Save(ctx, key, storage.ContentType(ext), io.LimitReader(r, size))
	if err != nil {
		return nil, apperrors.NewBadGateway("Failed to upload image", nil, err)
	}

	updated, err := s.users.SetAvatar(ctx, current.ID, url)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if previous != url {
		s.removeAvatar(ctx, previous)
	}
	return updated, nil
}

func (s *ProfileService) removeAvatar(ctx context.Context, url string) {
	if s.store == nil || url == "" {
		return
	}
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("avatar cleanup failed", zap.String("key", key), zap.Error(err))
	}
}

// Browse lists discoverable members other than the viewer, optionally filtered by query.
func (s *ProfileService) Browse(ctx context.Context, viewer *domain.User, query string, page Page) ([]domain.User, error) {
	page = page.Normalize()
	viewerID := viewer.ID
	return s.users.List(ctx, repository.UserFilter{
		Search:      query,
		BrowsableBy: &viewerID,
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
}

// View returns another member's profile. Hidden or banned profiles are reduced to a
// restricted card unless the viewer owns the profile or is an administrator.
func (s *ProfileService) View(ctx context.Context, viewer *domain.User, id string) (*ProfileView, error) {
	target, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if target.ID == viewer.ID || viewer.IsAdmin() || (target.ProfileVisible && !target.IsBanned) {
		return &ProfileView{User: target}, nil
	}
	return &ProfileView{
		User: &domain.User{
			ID:        target.ID,
			FirstName: target.FirstName,
			LastName:  target.LastName,
			AvatarURL: target.AvatarURL,
		},
		Restricted: true,
	}, nil
}
