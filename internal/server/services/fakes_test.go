package services

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/kingfluencer/backend/internal/common"
	"github.com/kingfluencer/backend/internal/dbx"
	"github.com/kingfluencer/backend/internal/server/models"
	"github.com/kingfluencer/backend/internal/server/otp"
	campaignsrepo "github.com/kingfluencer/backend/internal/server/repositories/campaigns"
	challengesrepo "github.com/kingfluencer/backend/internal/server/repositories/challenges"
	paymentsrepo "github.com/kingfluencer/backend/internal/server/repositories/payments"
	profilesrepo "github.com/kingfluencer/backend/internal/server/repositories/profiles"
	usersrepo "github.com/kingfluencer/backend/internal/server/repositories/users"
)

// --- behavioral fakes shared by the service tests ---

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User // by id

	emailInUseErr error
	updateErr     error
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	f := &fakeUsersRepo{users: map[string]*models.User{}}
	for _, u := range users {
		cp := *u
		f.users[u.ID] = &cp
	}
	return f
}

func (f *fakeUsersRepo) get(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	cp.EmailChangePhase = models.PhaseNone
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.users[u.ID] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context, role models.Role, search string, limit, offset int) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.User{}
	for _, u := range f.users {
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u *models.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[u.ID]
	if !ok {
		return common.ErrNotFound
	}
	stored.Name = u.Name
	stored.PhoneNumber = u.PhoneNumber
	stored.ProfilePictures = u.ProfilePictures
	return nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUsersRepo) EmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	if f.emailInUseErr != nil {
		return false, f.emailInUseErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) PhoneInUse(ctx context.Context, phone, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.PhoneNumber == phone && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsersRepo) SetVerified(ctx context.Context, id string, verified bool, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Verified = verified
	u.OTPVerifiedAt = at
	return nil
}

func (f *fakeUsersRepo) SetEmailChangeState(ctx context.Context, id string, phase models.EmailChangePhase, oldVerifiedAt *time.Time, pendingEmail *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.EmailChangePhase = phase
	u.EmailChangeOldVerifiedAt = oldVerifiedAt
	u.PendingEmail = pendingEmail
	return nil
}

func (f *fakeUsersRepo) ApplyEmailChange(ctx context.Context, id, newEmail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Email = newEmail
	u.EmailChangePhase = models.PhaseNone
	u.EmailChangeOldVerifiedAt = nil
	u.PendingEmail = nil
	return nil
}

func (f *fakeUsersRepo) Counts(ctx context.Context) (*usersrepo.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &usersrepo.Stats{}
	for _, u := range f.users {
		switch u.Role {
		case models.RoleClient:
			s.Clients++
		case models.RoleInfluencer:
			s.Influencers++
		}
		if u.Verified {
			s.Verified++
		}
	}
	return s, nil
}

type fakeChallengesRepo struct {
	mu    sync.Mutex
	slots map[string]*otp.Challenge

	upsertErr error
	afterGet  func() // runs once after Get returns, to squeeze in a rival
}

func newFakeChallengesRepo() *fakeChallengesRepo {
	return &fakeChallengesRepo{slots: map[string]*otp.Challenge{}}
}

func slotKey(userID string, purpose otp.Purpose) string {
	return userID + "/" + string(purpose)
}

func (f *fakeChallengesRepo) Upsert(ctx context.Context, userID string, purpose otp.Purpose, ch *otp.Challenge) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *ch
	f.slots[slotKey(userID, purpose)] = &cp
	return nil
}

func (f *fakeChallengesRepo) Get(ctx context.Context, userID string, purpose otp.Purpose) (*otp.Challenge, error) {
	f.mu.Lock()
	ch, ok := f.slots[slotKey(userID, purpose)]
	var cp otp.Challenge
	if ok {
		cp = *ch
	}
	hook := f.afterGet
	f.afterGet = nil
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if !ok {
		return nil, common.ErrNotFound
	}
	return &cp, nil
}

func (f *fakeChallengesRepo) Delete(ctx context.Context, userID string, purpose otp.Purpose) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.slots, slotKey(userID, purpose))
	return nil
}

func (f *fakeChallengesRepo) Consume(ctx context.Context, userID string, purpose otp.Purpose, codeHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := slotKey(userID, purpose)
	ch, ok := f.slots[key]
	if !ok || ch.CodeHash != codeHash {
		return false, nil
	}
	delete(f.slots, key)
	return true, nil
}

func (f *fakeChallengesRepo) has(userID string, purpose otp.Purpose) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.slots[slotKey(userID, purpose)]
	return ok
}

type fakeProfilesRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newFakeProfilesRepo() *fakeProfilesRepo {
	return &fakeProfilesRepo{profiles: map[string]*models.Profile{}}
}

func (f *fakeProfilesRepo) Create(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

func (f *fakeProfilesRepo) Get(ctx context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProfilesRepo) Update(ctx context.Context, p *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[p.UserID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	f.profiles[p.UserID] = &cp
	return nil
}

type fakeCampaignsRepo struct {
	mu        sync.Mutex
	campaigns map[string]*models.Campaign
}

func newFakeCampaignsRepo() *fakeCampaignsRepo {
	return &fakeCampaignsRepo{campaigns: map[string]*models.Campaign{}}
}

func (f *fakeCampaignsRepo) Create(ctx context.Context, c *models.Campaign) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.campaigns[c.ID] = &cp
	return &cp, nil
}

func (f *fakeCampaignsRepo) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCampaignsRepo) List(ctx context.Context, userID string, limit, offset int) ([]*models.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Campaign{}
	for _, c := range f.campaigns {
		if userID != "" && c.ClientID != userID && c.InfluencerID != userID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeCampaignsRepo) Update(ctx context.Context, c *models.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[c.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *c
	f.campaigns[c.ID] = &cp
	return nil
}

func (f *fakeCampaignsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.campaigns[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.campaigns, id)
	return nil
}

type fakePaymentsRepo struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
}

func newFakePaymentsRepo() *fakePaymentsRepo {
	return &fakePaymentsRepo{payments: map[string]*models.Payment{}}
}

func (f *fakePaymentsRepo) Create(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.payments[p.ID] = &cp
	return &cp, nil
}

func (f *fakePaymentsRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentsRepo) ListByCampaign(ctx context.Context, campaignID string) ([]*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Payment{}
	for _, p := range f.payments {
		if p.CampaignID == campaignID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePaymentsRepo) Update(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.payments[p.ID]; !ok {
		return common.ErrNotFound
	}
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentsRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.payments, id)
	return nil
}

type fakeRepoManager struct {
	u  *fakeUsersRepo
	p  *fakeProfilesRepo
	ch *fakeChallengesRepo
	c  *fakeCampaignsRepo
	pm *fakePaymentsRepo
}

func newFakeRepoManager(users ...*models.User) *fakeRepoManager {
	return &fakeRepoManager{
		u:  newFakeUsersRepo(users...),
		p:  newFakeProfilesRepo(),
		ch: newFakeChallengesRepo(),
		c:  newFakeCampaignsRepo(),
		pm: newFakePaymentsRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error       { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository             { return m.u }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profilesrepo.Repository       { return m.p }
func (m *fakeRepoManager) Challenges(db dbx.DBTX) challengesrepo.Repository   { return m.ch }
func (m *fakeRepoManager) Campaigns(db dbx.DBTX) campaignsrepo.Repository     { return m.c }
func (m *fakeRepoManager) Payments(db dbx.DBTX) paymentsrepo.Repository       { return m.pm }

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	failTo map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failTo: map[string]bool{}}
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[to] {
		return common.ErrDependency
	}
	f.sent = append(f.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (f *fakeMailer) lastTo(to string) *sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].To == to {
			return &f.sent[i]
		}
	}
	return nil
}
