package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"creatorstribe/internal/cache"
	"creatorstribe/internal/config"
	"creatorstribe/internal/creators"
	"creatorstribe/internal/models"
	"creatorstribe/internal/repository"
)

type fakeCodes struct {
	mu       sync.Mutex
	entries  map[string]*cache.OTPEntry
	ttls     map[string]time.Duration
	released []string
	reserved int
}

func newFakeCodes() *fakeCodes {
	return &fakeCodes{entries: map[string]*cache.OTPEntry{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCodes) Save(_ context.Context, email, hash string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[email] = &cache.OTPEntry{Hash: hash}
	f.ttls[email] = ttl
	return nil
}

func (f *fakeCodes) Reserve(_ context.Context, email string, limit int) (cache.OTPEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[email]
	if !ok {
		return cache.OTPEntry{}, cache.ErrOTPNotFound
	}
	e.Attempts++
	if limit > 0 && e.Attempts > limit {
		delete(f.entries, email)
		return cache.OTPEntry{Attempts: e.Attempts}, cache.ErrOTPLocked
	}
	f.reserved++
	return *e, nil
}

func (f *fakeCodes) Consume(_ context.Context, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[email]; !ok {
		return false, nil
	}
	delete(f.entries, email)
	return true, nil
}

func (f *fakeCodes) Delete(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, email)
	return nil
}

func (f *fakeCodes) ReleaseCooldown(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, email)
	return nil
}

func (f *fakeCodes) pending(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[email]
	return ok
}

type fakeAdmins struct {
	mu      sync.Mutex
	byEmail map[string]models.Admin
	logins  int
}

func newFakeAdmins() *fakeAdmins {
	return &fakeAdmins{byEmail: map[string]models.Admin{}}
}

func (f *fakeAdmins) UpsertLogin(_ context.Context, admin models.Admin) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	now := time.Now()
	if existing, ok := f.byEmail[admin.Email]; ok {
		existing.LastLoginAt = &now
		f.byEmail[admin.Email] = existing
		return existing, nil
	}
	admin.CreatedAt = now
	admin.LastLoginAt = &now
	f.byEmail[admin.Email] = admin
	return admin, nil
}

func (f *fakeAdmins) Create(_ context.Context, admin models.Admin) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[admin.Email]; ok {
		return models.Admin{}, repository.ErrAdminExists
	}
	now := time.Now()
	admin.CreatedAt = now
	admin.LastLoginAt = &now
	f.byEmail[admin.Email] = admin
	return admin, nil
}

func (f *fakeAdmins) FindByEmail(_ context.Context, email string) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byEmail[email]; ok {
		return a, nil
	}
	return models.Admin{}, repository.ErrAdminNotFound
}

func (f *fakeAdmins) GetByID(_ context.Context, id string) (models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Admin{}, repository.ErrAdminNotFound
}

type fakeSessions struct {
	mu      sync.Mutex
	byID    map[string]models.Session
	touched []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[string]models.Session{}}
}

func (f *fakeSessions) Create(_ context.Context, s models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[s.ID] = s
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id string) (models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return models.Session{}, repository.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeSessions) DeleteByID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return repository.ErrSessionNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) Touch(_ context.Context, id, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	return nil
}

type fakeOutbox struct {
	published []map[string]any
	err       error
}

func (f *fakeOutbox) Publish(_ context.Context, values map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, values)
	return "1-0", nil
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func (f *fakeOutbox) lastCode() string {
	if len(f.published) == 0 {
		return ""
	}
	code, _ := f.published[len(f.published)-1]["code"].(string)
	return code
}

type fakeObjects struct {
	objects map[string][]byte
	removed []string
}

func (f *fakeObjects) Bucket() string { return "media" }

func (f *fakeObjects) Put(_ context.Context, key string, body io.Reader, size int64, _ string) (int64, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return 0, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = data
	return size, nil
}

func (f *fakeObjects) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeObjects) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeMedia struct {
	created []models.Media
	err     error
}

func (f *fakeMedia) Create(_ context.Context, m models.Media) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, m)
	return nil
}

type fakeStatsCache struct {
	values map[string]creators.Stats
	sets   int
}

func (f *fakeStatsCache) Get(_ context.Context, key string, dst any) (bool, error) {
	v, ok := f.values[key]
	if !ok {
		return false, nil
	}
	*dst.(*creators.Stats) = v
	return true, nil
}

func (f *fakeStatsCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if f.values == nil {
		f.values = map[string]creators.Stats{}
	}
	f.values[key] = value.(creators.Stats)
	f.sets++
	return nil
}

func (f *fakeStatsCache) Delete(_ context.Context, key string) error {
	delete(f.values, key)
	return nil
}

var errBoom = errors.New("boom")

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret: "test-secret",
			JWTAccessTTL:    time.Hour,
			SignatureSecret: "sig",
			OTPTTL:          10 * time.Minute,
			OTPLength:       6,
			OTPMaxAttempts:  3,
		},
		Storage: config.StorageConfig{MaxUpload: 1 << 20},
		Table:   config.TableConfig{ProjectID: "creatorstribe"},
		Mail:    config.MailConfig{Inbox: "hello@ct.com"},
	}
}
