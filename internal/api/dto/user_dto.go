package dto

import (
	"time"

	"github.com/skill-swap/skillswap/internal/domain"
)

// RegisterRequest payload for new members.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Mobile    string `json:"mobile"`
	Pincode   string `json:"pincode"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the full profile, returned to its owner and to administrators.
type UserResponse struct {
	ID                string              `json:"id"`
	FirstName         string              `json:"first_name"`
	LastName          string              `json:"last_name"`
	Email             string              `json:"email"`
	Mobile            string              `json:"mobile"`
	Pincode           string              `json:"pincode"`
	City              string              `json:"city"`
	State             string              `json:"state"`
	AvatarURL         string              `json:"avatar_url"`
	Bio               string              `json:"bio"`
	SkillsOffered     []string            `json:"skills_offered"`
	SkillsWanted      []string            `json:"skills_wanted"`
	Availability      domain.Availability `json:"availability"`
	ProfileVisible    bool                `json:"profile_visible"`
	Role              domain.Role         `json:"role"`
	EmailVerified     bool                `json:"email_verified"`
	IsVerified        bool                `json:"is_verified"`
	VerifiedAt        *time.Time          `json:"verified_at,omitempty"`
	IsBanned          bool                `json:"is_banned"`
	BannedAt          *time.Time          `json:"banned_at,omitempty"`
	SwapsCompleted    int                 `json:"swaps_completed"`
	ProfileCompletion int                 `json:"profile_completion"`
	GoogleLinked      bool                `json:"google_linked"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// PublicProfile is what other members see.
type PublicProfile struct {
	ID               string               `json:"id"`
	FirstName        string               `json:"first_name"`
	LastName         string               `json:"last_name"`
	Initials         string               `json:"initials"`
	AvatarURL        string               `json:"avatar_url"`
	City             string               `json:"city,omitempty"`
	State            string               `json:"state,omitempty"`
	Bio              string               `json:"bio,omitempty"`
	SkillsOffered    []string             `json:"skills_offered,omitempty"`
	SkillsWanted     []string             `json:"skills_wanted,omitempty"`
	Availability     *domain.Availability `json:"availability,omitempty"`
	AvailabilityText string               `json:"availability_text,omitempty"`
	IsVerified       bool                 `json:"is_verified"`
	SwapsCompleted   int                  `json:"swaps_completed"`
	Private          bool                 `json:"private,omitempty"`
}

// UpdateProfileRequest is a partial update; omitted fields are unchanged.
type UpdateProfileRequest struct {
	FirstName      *string              `json:"first_name"`
	LastName       *string              `json:"last_name"`
	Mobile         *string              `json:"mobile"`
	Pincode        *string              `json:"pincode"`
	City           *string              `json:"city"`
	State          *string              `json:"state"`
	Bio            *string              `json:"bio"`
	SkillsOffered  *[]string            `json:"skills_offered"`
	SkillsWanted   *[]string            `json:"skills_wanted"`
	Availability   *domain.Availability `json:"availability"`
	ProfileVisible *bool                `json:"profile_visible"`
}

// PasswordResetRequest starts a reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm finishes a reset.
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// VerifyEmailRequest payload.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// NewUserResponse maps a user to its owner view.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		Mobile:            u.Mobile,
		Pincode:           u.Pincode,
		City:              u.City,
		State:             u.State,
		AvatarURL:         u.AvatarURL,
		Bio:               u.Bio,
		SkillsOffered:     nonNil(u.SkillsOffered),
		SkillsWanted:      nonNil(u.SkillsWanted),
		Availability:      u.Availability,
		ProfileVisible:    u.ProfileVisible,
		Role:              u.Role,
		EmailVerified:     u.EmailVerified,
		IsVerified:        u.IsVerified,
		VerifiedAt:        u.VerifiedAt,
		IsBanned:          u.IsBanned,
		BannedAt:          u.BannedAt,
		SwapsCompleted:    u.SwapsCompleted,
		ProfileCompletion: u.ProfileCompletion(),
		GoogleLinked:      u.GoogleSubject != nil,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

// NewPublicProfile maps a user to the member-facing card.
func NewPublicProfile(u *domain.User) PublicProfile {
	availability := u.Availability
	return PublicProfile{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Initials:         u.Initials(),
		AvatarURL:        u.AvatarURL,
		City:             u.City,
		State:            u.State,
		Bio:              u.Bio,
		SkillsOffered:    u.SkillsOffered,
		SkillsWanted:     u.SkillsWanted,
		Availability:     &availability,
		AvailabilityText: u.Availability.String(),
		IsVerified:       u.IsVerified,
		SwapsCompleted:   u.SwapsCompleted,
	}
}

// NewRestrictedProfile is the card shown for hidden profiles.
func NewRestrictedProfile(u *domain.User) PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Initials:  u.Initials(),
		AvatarURL: u.AvatarURL,
		Private:   true,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
