package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/skill-swap/skillswap/internal/domain"
	"github.com/skill-swap/skillswap/internal/events"
	"github.com/skill-swap/skillswap/internal/location"
	"github.com/skill-swap/skillswap/internal/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	byID  map[string]*domain.User
	seq   int
	clock time.Time
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*domain.User{}, clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, u := range users {
		if u.ID == "" {
			f.seq++
			u.ID = fmt.Sprintf("u-%d", f.seq)
		}
		if u.Role == "" {
			u.Role = domain.RoleUser
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = f.clock
		}
		cp := *u
		f.byID[u.ID] = &cp
	}
	return f
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrConflict
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("u-%d", f.seq)
	user.CreatedAt = f.clock
	user.UpdatedAt = f.clock
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

// put replaces the stored row wholesale; tests use it to arrange state.
func (f *fakeUsers) put(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

// change applies fn to the stored row; fn returning false behaves like an UPDATE
// whose WHERE clause matched nothing.
func (f *fakeUsers) change(id string, fn func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok || !fn(u) {
		return nil, pgx.ErrNoRows
	}
	u.UpdatedAt = f.clock
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, user *domain.User) error {
	fresh, err := f.change(user.ID, func(u *domain.User) bool {
		u.FirstName, u.LastName = user.FirstName, user.LastName
		u.Mobile, u.Pincode, u.City, u.State = user.Mobile, user.Pincode, user.City, user.State
		u.Bio = user.Bio
		u.SkillsOffered, u.SkillsWanted = user.SkillsOffered, user.SkillsWanted
		u.Availability = user.Availability
		u.ProfileVisible = user.ProfileVisible
		return true
	})
	if err != nil {
		return err
	}
	*user = *fresh
	return nil
}

func (f *fakeUsers) SetAvatar(_ context.Context, id, url string) (*domain.User, error) {
	return f.change(id, func(u *domain.User) bool { u.AvatarURL = url; return true })
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := f.change(id, func(u *domain.User) bool { u.PasswordHash = hash; return true })
	return err
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, id string) error {
	_, err := f.change(id, func(u *domain.User) bool { u.EmailVerified = true; return true })
	return err
}

func (f *fakeUsers) LinkGoogle(_ context.Context, id, subject string, emailVerified bool, picture string) (*domain.User, error) {
	return f.change(id, func(u *domain.User) bool {
		u.GoogleSubject = &subject
		u.EmailVerified = u.EmailVerified || emailVerified
		if u.AvatarURL == "" {
			u.AvatarURL = picture
		}
		return true
	})
}

func (f *fakeUsers) SetVerified(_ context.Context, id string, verified bool, at *time.Time) (*domain.User, error) {
	return f.change(id, func(u *domain.User) bool {
		if verified && u.IsBanned {
			return false
		}
		u.IsVerified, u.VerifiedAt = verified, at
		return true
	})
}

func (f *fakeUsers) SetBanned(_ context.Context, id string, banned bool, at *time.Time) (*domain.User, error) {
	return f.change(id, func(u *domain.User) bool { u.IsBanned, u.BannedAt = banned, at; return true })
}

func (f *fakeUsers) SetRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	return f.change(id, func(u *domain.User) bool { u.Role = role; return true })
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (f *fakeUsers) GetByGoogleSubject(_ context.Context, subject string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.GoogleSubject != nil && *u.GoogleSubject == subject })
}

func (f *fakeUsers) find(match func(*domain.User) bool) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUsers) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.User
	for _, u := range f.byID {
		if filter.BrowsableBy != nil && (u.ID == *filter.BrowsableBy || !u.ProfileVisible || u.IsBanned || !u.HasCompletedProfile()) {
			continue
		}
		if filter.Verified != nil && u.IsVerified != *filter.Verified {
			continue
		}
		if filter.Banned != nil && u.IsBanned != *filter.Banned {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" {
			hay := u.DisplayName() + " " + strings.Join(u.SkillsOffered, " ") + " " + strings.Join(u.SkillsWanted, " ") + " " + u.City + " " + u.State
			if filter.BrowsableBy == nil {
				hay += " " + u.Email
			}
			hay = strings.ToLower(hay)
			if !strings.Contains(hay, q) {
				continue
			}
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) Counts(context.Context) (repository.UserCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var c repository.UserCounts
	for _, u := range f.byID {
		c.Total++
		if u.IsVerified {
			c.Verified++
		}
		if u.IsBanned {
			c.Banned++
		}
	}
	return c, nil
}

func (f *fakeUsers) CreatedSince(_ context.Context, since time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []time.Time
	for _, u := range f.byID {
		if !u.CreatedAt.Before(since) {
			out = append(out, u.CreatedAt)
		}
	}
	return out, nil
}

type fakeTokens struct {
	mu      sync.Mutex
	byToken map[string]*domain.AccountToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{byToken: map[string]*domain.AccountToken{}}
}

func (f *fakeTokens) Create(_ context.Context, token *domain.AccountToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	token.ID = fmt.Sprintf("t-%d", len(f.byToken)+1)
	cp := *token
	f.byToken[token.Token] = &cp
	return nil
}

func (f *fakeTokens) GetByToken(_ context.Context, token string) (*domain.AccountToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byToken[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTokens) MarkUsed(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byToken {
		if t.ID == id && t.UsedAt == nil {
			now := time.Now()
			t.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTokens) latest(purpose domain.TokenPurpose) *domain.AccountToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.AccountToken
	for _, t := range f.byToken {
		if t.Purpose == purpose && (best == nil || t.ID > best.ID) {
			best = t
		}
	}
	return best
}

type fakeRequests struct {
	mu    sync.Mutex
	users *fakeUsers
	byID  map[string]*domain.SwapRequest
	seq   int
}

func newFakeRequests(users *fakeUsers) *fakeRequests {
	return &fakeRequests{users: users, byID: map[string]*domain.SwapRequest{}}
}

func (f *fakeRequests) Create(_ context.Context, req *domain.SwapRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.byID {
		if r.Status == domain.RequestStatusPending && r.SenderID == req.SenderID && r.ReceiverID == req.ReceiverID &&
			r.SkillOffered == req.SkillOffered && r.SkillWanted == req.SkillWanted {
			return repository.ErrConflict
		}
	}
	f.seq++
	req.ID = fmt.Sprintf("r-%d", f.seq)
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeRequests) GetByID(_ context.Context, id string) (*domain.SwapRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRequests) List(_ context.Context, filter repository.SwapRequestFilter) ([]domain.SwapRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.SwapRequest
	for _, r := range f.byID {
		if filter.SenderID != nil && r.SenderID != *filter.SenderID {
			continue
		}
		if filter.ReceiverID != nil && r.ReceiverID != *filter.ReceiverID {
			continue
		}
		if filter.ParticipantID != nil && !r.Involves(*filter.ParticipantID) {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRequests) Respond(ctx context.Context, id string, status domain.RequestStatus, at time.Time) (*domain.SwapRequest, error) {
	f.mu.Lock()
	r, ok := f.byID[id]
	if !ok || r.Status != domain.RequestStatusPending {
		f.mu.Unlock()
		return nil, pgx.ErrNoRows
	}
	r.Status = status
	r.RespondedAt = &at
	cp := *r
	f.mu.Unlock()

	if status == domain.RequestStatusAccepted {
		for _, uid := range []string{cp.SenderID, cp.ReceiverID} {
			_, _ = f.users.change(uid, func(u *domain.User) bool { u.SwapsCompleted++; return true })
		}
	}
	return &cp, nil
}

func (f *fakeRequests) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRequests) CountByStatus(context.Context) (map[domain.RequestStatus]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[domain.RequestStatus]int{}
	for _, s := range domain.AllRequestStatuses {
		out[s] = 0
	}
	for _, r := range f.byID {
		out[r.Status]++
	}
	return out, nil
}

type fakeMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (f *fakeMessages) Create(_ context.Context, msg *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = fmt.Sprintf("m-%d", len(f.msgs)+1)
	f.msgs = append(f.msgs, *msg)
	return nil
}

func (f *fakeMessages) ListConversation(_ context.Context, userID, counterpartID string, limit, offset int) ([]domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Message
	for _, m := range f.msgs {
		if (m.SenderID == userID && m.RecipientID == counterpartID) || (m.SenderID == counterpartID && m.RecipientID == userID) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, recipientID, senderID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.msgs {
		m := &f.msgs[i]
		if m.RecipientID == recipientID && m.SenderID == senderID && m.ReadAt == nil {
			m.ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) Inbox(_ context.Context, userID string) ([]domain.ConversationSummary, error) {
	return nil, nil
}

type fakeAnnouncements struct {
	items []domain.Announcement
}

func (f *fakeAnnouncements) Create(_ context.Context, a *domain.Announcement) error {
	a.ID = fmt.Sprintf("a-%d", len(f.items)+1)
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAnnouncements) List(_ context.Context, limit, offset int) ([]domain.Announcement, error) {
	return f.items, nil
}

// fakeLockoutStore mirrors the Redis script semantics in memory.
type fakeLockoutStore struct {
	mu      sync.Mutex
	records map[string]*domain.LockoutRecord
	err     error
}

func newFakeLockoutStore() *fakeLockoutStore {
	return &fakeLockoutStore{records: map[string]*domain.LockoutRecord{}}
}

func (f *fakeLockoutStore) Get(_ context.Context, email string) (*domain.LockoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.records[email]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeLockoutStore) RecordFailure(_ context.Context, email string, now time.Time, maxAttempts int, lockFor time.Duration) (*domain.LockoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.records[email]
	if !ok || r.LockExpiredAt(now) {
		r = &domain.LockoutRecord{Email: email}
		f.records[email] = r
	}
	r.Attempts++
	r.LastAttemptAt = now
	if r.Attempts >= maxAttempts {
		until := now.Add(lockFor)
		r.LockedUntil = &until
	}
	cp := *r
	return &cp, nil
}

func (f *fakeLockoutStore) Reset(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.records, email)
	return nil
}

type fakeLocator struct {
	locations map[string]location.Location
}

func (f fakeLocator) Resolve(_ context.Context, pincode string) (*location.Location, error) {
	if loc, ok := f.locations[pincode]; ok {
		return &loc, nil
	}
	return nil, errors.New("lookup failed")
}

type fakeObjectStore struct {
	saved   map[string][]byte
	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{saved: map[string][]byte{}}
}

func (f *fakeObjectStore) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.saved[key] = data
	return "https://cdn.test/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, "https://cdn.test/")
	return key, ok && key != ""
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}
