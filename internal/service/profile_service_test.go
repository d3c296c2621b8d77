package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/location"
)

func strPtr(s string) *string { return &s }

func profileFixture(store *fakeObjectStore) (*ProfileService, *fakeUsers) {
	users := newFakeUsers(
		&domain.User{ID: "me", FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", ProfileVisible: true, SkillsOffered: []string{"Figma"}},
		&domain.User{ID: "guitar", FirstName: "Bob", LastName: "Shah", Email: "bob@example.com", ProfileVisible: true, SkillsOffered: []string{"Guitar"}, City: "Surat"},
		&domain.User{ID: "hidden", FirstName: "Cara", LastName: "Iyer", Email: "cara@example.com", ProfileVisible: false, SkillsOffered: []string{"Guitar"}, Bio: "secret"},
		&domain.User{ID: "banned", FirstName: "Dev", LastName: "Rao", Email: "dev@example.com", ProfileVisible: true, IsBanned: true, SkillsOffered: []string{"Guitar"}},
		&domain.User{ID: "empty", FirstName: "Eli", LastName: "Das", Email: "eli@example.com", ProfileVisible: true},
	)
	locator := fakeLocator{locations: map[string]location.Location{"400001": {City: "Mumbai", State: "Maharashtra"}}}
	if store == nil {
		return NewProfileService(users, nil, locator, testConfig().Media, nil), users
	}
	return NewProfileService(users, store, locator, testConfig().Media, nil), users
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := profileFixture(nil)
	ctx := context.Background()
	me := &domain.User{ID: "me"}

	offered := []string{" React ", "react", "Go"}
	updated, err := svc.Update(ctx, me, ProfilePatch{
		Bio:           strPtr("Designer who codes"),
		SkillsOffered: &offered,
		Pincode:       strPtr("400001"),
		Mobile:        strPtr("+91 98765 43210"),
		Availability:  &domain.Availability{Text: "weekends"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"React", "Go"}, updated.SkillsOffered)
	assert.Equal(t, "Mumbai", updated.City)
	assert.Equal(t, "Maharashtra", updated.State)
	assert.Equal(t, "+919876543210", updated.Mobile)
	assert.Equal(t, "weekends", updated.Availability.String())
}

// moderatingLocator bans and demotes a user while a postal lookup is in flight.
type moderatingLocator struct {
	users *fakeUsers
	id    string
}

func (m moderatingLocator) Resolve(ctx context.Context, _ string) (*location.Location, error) {
	now := m.users.clock
	if _, err := m.users.SetBanned(ctx, m.id, true, &now); err != nil {
		return nil, err
	}
	if _, err := m.users.SetRole(ctx, m.id, domain.RoleUser); err != nil {
		return nil, err
	}
	return &location.Location{City: "Mumbai", State: "Maharashtra"}, nil
}

func TestUpdateProfileKeepsModerationDuringLookup(t *testing.T) {
	users := newFakeUsers(&domain.User{ID: "me", FirstName: "Asha", LastName: "Patel", Email: "asha@example.com", Role: domain.RoleAdmin})
	svc := NewProfileService(users, nil, moderatingLocator{users: users, id: "me"}, testConfig().Media, nil)
	ctx := context.Background()

	updated, err := svc.Update(ctx, &domain.User{ID: "me", Role: domain.RoleAdmin}, ProfilePatch{Pincode: strPtr("400001"), Bio: strPtr("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", updated.City)
	assert.Equal(t, "hi", updated.Bio)
	assert.True(t, updated.IsBanned)
	assert.False(t, updated.IsAdmin())

	stored, err := users.GetByID(ctx, "me")
	require.NoError(t, err)
	assert.True(t, stored.IsBanned)
	assert.Equal(t, domain.RoleUser, stored.Role)
	assert.Equal(t, "Mumbai", stored.City)
}

func TestUpdateProfileKeepsSubmittedLocationWhenLookupFails(t *testing.T) {
	svc, _ := profileFixture(nil)
	updated, err := svc.Update(context.Background(), &domain.User{ID: "me"}, ProfilePatch{
		Pincode: strPtr("560001"),
		City:    strPtr("Bengaluru"),
		State:   strPtr("Karnataka"),
	})
	require.NoError(t, err)
	assert.Equal(t, "560001", updated.Pincode)
	assert.Equal(t, "Bengaluru", updated.City)
	assert.Equal(t, "Karnataka", updated.State)
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, _ := profileFixture(nil)
	tooMany := make([]string, 21)
	for i := range tooMany {
		tooMany[i] = strings.Repeat("s", i+1)
	}
	_, err := svc.Update(context.Background(), &domain.User{ID: "me"}, ProfilePatch{
		FirstName:    strPtr(" "),
		Bio:          strPtr(strings.Repeat("b", 501)),
		Mobile:       strPtr("12ab"),
		Pincode:      strPtr("99999"),
		SkillsWanted: &tooMany,
	})
	de := requireCode(t, err, "VALIDATION_FAILED")
	for _, field := range []string{"first_name", "bio", "mobile", "pincode", "skills_wanted"} {
		assert.Contains(t, de.Details, field)
	}
}

func TestBrowseExcludesHiddenBannedIncompleteAndSelf(t *testing.T) {
	svc, _ := profileFixture(nil)
	ctx := context.Background()

	got, err := svc.Browse(ctx, &domain.User{ID: "me"}, "", Page{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "guitar", got[0].ID)

	got, err = svc.Browse(ctx, &domain.User{ID: "me"}, "piano", Page{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestViewRestrictsHiddenProfiles(t *testing.T) {
	svc, _ := profileFixture(nil)
	ctx := context.Background()

	view, err := svc.View(ctx, &domain.User{ID: "me"}, "hidden")
	require.NoError(t, err)
	assert.True(t, view.Restricted)
	assert.Empty(t, view.User.Bio)
	assert.Equal(t, "Cara", view.User.FirstName)

	view, err = svc.View(ctx, &domain.User{ID: "admin", Role: domain.RoleAdmin}, "hidden")
	require.NoError(t, err)
	assert.False(t, view.Restricted)
	assert.Equal(t, "secret", view.User.Bio)

	_, err = svc.View(ctx, &domain.User{ID: "me"}, "ghost")
	requireCode(t, err, "NOT_FOUND")
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	store := newFakeObjectStore()
	svc, users := profileFixture(store)
	ctx := context.Background()
	me := &domain.User{ID: "me"}

	first, err := svc.UploadAvatar(ctx, me, "Me.PNG", 4, strings.NewReader("png!"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.AvatarURL, "https://cdn.test/avatars/me/me_"))
	assert.True(t, strings.HasSuffix(first.AvatarURL, ".png"))

	second, err := svc.UploadAvatar(ctx, me, "next.jpg", 3, strings.NewReader("jpg"))
	require.NoError(t, err)
	require.Len(t, store.deleted, 1)
	assert.Equal(t, "https://cdn.test/"+store.deleted[0], first.AvatarURL)

	stored, err := users.GetByID(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, second.AvatarURL, stored.AvatarURL)

	_, err = svc.UploadAvatar(ctx, me, "doc.pdf", 3, strings.NewReader("pdf"))
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestUploadAvatarDisabled(t *testing.T) {
	svc, _ := profileFixture(nil)
	_, err := svc.UploadAvatar(context.Background(), &domain.User{ID: "me"}, "a.png", 1, strings.NewReader("x"))
	requireCode(t, err, "NOT_CONFIGURED")
}

func TestDeleteAccount(t *testing.T) {
	store := newFakeObjectStore()
	svc, users := profileFixture(store)
	ctx := context.Background()

	me, err := users.GetByID(ctx, "me")
	require.NoError(t, err)
	me.AvatarURL = "https://cdn.test/avatars/me/a.png"

	require.NoError(t, svc.Delete(ctx, me))
	assert.Equal(t, []string{"avatars/me/a.png"}, store.deleted)
	_, err = users.GetByID(ctx, "me")
	assert.Error(t, err)
}
