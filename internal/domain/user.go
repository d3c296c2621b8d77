package domain

import (
	"strings"
	"time"
)

// User is a member of the platform. Admins are users with RoleAdmin.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	PasswordHash   string
	GoogleSubject  *string
	Mobile         string
	Pincode        string
	City           string
	State          string
	AvatarURL      string
	Bio            string
	SkillsOffered  []string
	SkillsWanted   []string
	Availability   Availability
	ProfileVisible bool
	Role           Role
	EmailVerified  bool
	IsVerified     bool
	VerifiedAt     *time.Time
	IsBanned       bool
	BannedAt       *time.Time
	SwapsCompleted int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// DisplayName joins first and last name.
func (u *User) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Initials returns up to two upper-case initials, falling back to the email.
func (u *User) Initials() string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return strings.ToUpper(firstRune(first) + firstRune(last))
	case first != "":
		return strings.ToUpper(firstRune(first))
	case u.Email != "":
		return strings.ToUpper(firstRune(u.Email))
	}
	return "U"
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// HasCompletedProfile reports whether the user can appear in browse results.
func (u *User) HasCompletedProfile() bool {
	return strings.TrimSpace(u.FirstName) != "" &&
		strings.TrimSpace(u.LastName) != "" &&
		strings.TrimSpace(u.Email) != "" &&
		(len(u.SkillsOffered) > 0 || len(u.SkillsWanted) > 0)
}

// ProfileCompletion is the percentage of profile fields populated, 0..100.
func (u *User) ProfileCompletion() int {
	fields := []bool{
		strings.TrimSpace(u.FirstName) != "",
		strings.TrimSpace(u.LastName) != "",
		strings.TrimSpace(u.Mobile) != "",
		strings.TrimSpace(u.Pincode) != "",
		strings.TrimSpace(u.City) != "",
		strings.TrimSpace(u.State) != "",
		strings.TrimSpace(u.AvatarURL) != "",
		strings.TrimSpace(u.Bio) != "",
		len(u.SkillsOffered) > 0,
		len(u.SkillsWanted) > 0,
		!u.Availability.IsZero(),
	}
	filled := 0
	for _, ok := range fields {
		if ok {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// OffersSkill reports whether skill is in the offered list, ignoring case.
func (u *User) OffersSkill(skill string) bool {
	return containsFold(u.SkillsOffered, skill)
}

// WantsSkill reports whether skill is in the wanted list, ignoring case.
func (u *User) WantsSkill(skill string) bool {
	return containsFold(u.SkillsWanted, skill)
}

// NormalizeSkills trims entries, drops blanks, and removes case-insensitive duplicates keeping order.
func NormalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.Join(strings.Fields(skill), " ")
		if skill == "" {
			continue
		}
		key := strings.ToLower(skill)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func containsFold(list []string, value string) bool {
	value = strings.TrimSpace(value)
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
