package service

// fakes_test.go — in-memory реализации репозиториев и внешних клиентов
// для unit-тестов сервисного слоя.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/botanico/correspondencia/mailroom-module/internal/blobstore"
	"github.com/botanico/correspondencia/mailroom-module/internal/domain/model"
	"github.com/botanico/correspondencia/mailroom-module/internal/mailer"
	"github.com/botanico/correspondencia/mailroom-module/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakeCorrespondenceRepo ---

type fakeCorrespondenceRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Correspondence
}

func newFakeCorrespondenceRepo() *fakeCorrespondenceRepo {
	return &fakeCorrespondenceRepo{items: make(map[uuid.UUID]*model.Correspondence)}
}

func (r *fakeCorrespondenceRepo) GetAll(ctx context.Context) ([]model.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Correspondence
	for _, c := range r.items {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeCorrespondenceRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCorrespondenceRepo) GetByRecipientEmail(ctx context.Context, email string) ([]model.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Correspondence
	for _, c := range r.items {
		if strings.EqualFold(c.RecipientEmail, email) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCorrespondenceRepo) Create(ctx context.Context, in repository.CorrespondenceCreate) (*model.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &model.Correspondence{
		ID:             uuid.New(),
		RecipientID:    in.RecipientID,
		RecipientName:  in.RecipientName,
		RecipientEmail: in.RecipientEmail,
		Sender:         in.Sender,
		Type:           in.Type,
		Status:         model.StatusReceived,
		EmailStatus:    model.EmailPending,
		Date:           in.Date,
		Time:           in.Time,
		TrackingNumber: in.TrackingNumber,
		CreatedAt:      time.Now(),
	}
	r.items[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *fakeCorrespondenceRepo) Update(ctx context.Context, id uuid.UUID, upd repository.CorrespondenceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if upd.RecipientName != nil {
		c.RecipientName = *upd.RecipientName
	}
	if upd.RecipientEmail != nil {
		c.RecipientEmail = *upd.RecipientEmail
	}
	if upd.Sender != nil {
		c.Sender = *upd.Sender
	}
	if upd.Type != nil {
		c.Type = *upd.Type
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.Price != nil {
		c.Price = upd.Price
	}
	if upd.SupplierInfo != nil {
		c.SupplierInfo = upd.SupplierInfo
	}
	if upd.InternalOperationalNotes != nil {
		c.InternalOperationalNotes = upd.InternalOperationalNotes
	}
	// COALESCE-семантика боевого репозитория
	if upd.DeliveredBy != nil && c.DeliveredBy == nil {
		c.DeliveredBy = upd.DeliveredBy
	}
	if upd.DeliveredAt != nil && c.DeliveredAt == nil {
		c.DeliveredAt = upd.DeliveredAt
	}
	if upd.DigitizedAt != nil && c.DigitizedAt == nil {
		c.DigitizedAt = upd.DigitizedAt
	}
	return nil
}

func (r *fakeCorrespondenceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeCorrespondenceRepo) MarkDelivered(ctx context.Context, id, deliveredBy uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if c.Status == model.StatusDelivered {
		return false, nil
	}
	c.Status = model.StatusDelivered
	c.DeliveredBy = &deliveredBy
	c.DeliveredAt = &at
	return true, nil
}

func (r *fakeCorrespondenceRepo) PromoteScanned(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if c.Status != model.StatusReceived && c.Status != model.StatusNotified {
		return false, nil
	}
	c.Status = model.StatusScanned
	if c.DigitizedAt == nil {
		c.DigitizedAt = &at
	}
	return true, nil
}

func (r *fakeCorrespondenceRepo) SetEmailStatus(ctx context.Context, id uuid.UUID, s model.EmailStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.EmailStatus = s
	return nil
}

func (r *fakeCorrespondenceRepo) ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]model.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Correspondence
	for _, c := range r.items {
		if (c.RecipientID != nil && *c.RecipientID == userID) ||
			(c.DeliveredBy != nil && *c.DeliveredBy == userID) ||
			strings.EqualFold(c.RecipientEmail, email) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCorrespondenceRepo) CountForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.items {
		if (c.RecipientID != nil && *c.RecipientID == userID) ||
			(c.DeliveredBy != nil && *c.DeliveredBy == userID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeCorrespondenceRepo) ListIDsByRecipient(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, c := range r.items {
		if c.RecipientID != nil && *c.RecipientID == userID {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (r *fakeCorrespondenceRepo) UnlinkRecipient(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.items {
		if c.RecipientID != nil && *c.RecipientID == userID {
			c.RecipientID = nil
			n++
		}
	}
	return n, nil
}

func (r *fakeCorrespondenceRepo) UnlinkDeliverer(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.items {
		if c.DeliveredBy != nil && *c.DeliveredBy == userID {
			c.DeliveredBy = nil
			n++
		}
	}
	return n, nil
}

func (r *fakeCorrespondenceRepo) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.items {
		if !c.CreatedAt.Before(t) {
			count++
		}
	}
	return count, nil
}

func (r *fakeCorrespondenceRepo) CountNotDelivered(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.items {
		if c.Status != model.StatusDelivered {
			count++
		}
	}
	return count, nil
}

func (r *fakeCorrespondenceRepo) CountPendingByTypes(ctx context.Context, types []model.CorrespondenceType) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.items {
		if c.Status == model.StatusDelivered {
			continue
		}
		for _, t := range types {
			if c.Type == t {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *fakeCorrespondenceRepo) CountByEmailStatus(ctx context.Context, s model.EmailStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.items {
		if c.EmailStatus == s {
			count++
		}
	}
	return count, nil
}

func (r *fakeCorrespondenceRepo) CreatedAtSince(ctx context.Context, t time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, c := range r.items {
		if !c.CreatedAt.Before(t) {
			out = append(out, c.CreatedAt)
		}
	}
	return out, nil
}

// --- fakeAttachmentRepo ---

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments map[uuid.UUID]*model.Attachment
	insertErr   error
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[uuid.UUID]*model.Attachment)}
}

func (r *fakeAttachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attachments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAttachmentRepo) ListByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) ([]model.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Attachment
	for _, a := range r.attachments {
		if a.CorrespondenceID == correspondenceID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAttachmentRepo) CountByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) (int, error) {
	list, _ := r.ListByCorrespondence(ctx, correspondenceID)
	return len(list), nil
}

func (r *fakeAttachmentRepo) Insert(ctx context.Context, a model.Attachment) (*model.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return nil, r.insertErr
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	cp := a
	r.attachments[a.ID] = &cp
	return &a, nil
}

func (r *fakeAttachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attachments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.attachments, id)
	return nil
}

func (r *fakeAttachmentRepo) DeleteByCorrespondence(ctx context.Context, correspondenceID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for id, a := range r.attachments {
		if a.CorrespondenceID == correspondenceID {
			paths = append(paths, a.FilePath)
			delete(r.attachments, id)
		}
	}
	return paths, nil
}

func (r *fakeAttachmentRepo) CountDistinctCorrespondence(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]struct{})
	for _, a := range r.attachments {
		seen[a.CorrespondenceID] = struct{}{}
	}
	return len(seen), nil
}

// --- fakeProfileRepo ---

type fakeProfileRepo struct {
	mu        sync.Mutex
	profiles  map[uuid.UUID]*model.Profile
	createErr error
	getErr    error
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*model.Profile)}
}

func (r *fakeProfileRepo) put(p model.Profile) *model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.profiles[p.ID] = &cp
	return &cp
}

func (r *fakeProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProfileRepo) List(ctx context.Context) ([]model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Profile
	for _, p := range r.profiles {
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProfileRepo) Search(ctx context.Context, q string, limit int) ([]model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q = strings.ToLower(q)
	var out []model.Profile
	for _, p := range r.profiles {
		if strings.Contains(strings.ToLower(p.FullName), q) ||
			strings.Contains(strings.ToLower(p.Email), q) {
			out = append(out, *p)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) Create(ctx context.Context, p model.Profile) (*model.Profile, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, existing := range r.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return nil, repository.ErrConflict
		}
	}
	p.CreatedAt = time.Now()
	return r.put(p), nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, id uuid.UUID, upd model.ProfileUpdate) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.Role != nil {
		p.Role = *upd.Role
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.PhoneNumber != nil {
		p.PhoneNumber = upd.PhoneNumber
	}
	if upd.NotificationEmail != nil {
		p.NotificationEmail = upd.NotificationEmail
	}
	if upd.EmailNotifications != nil {
		p.EmailNotifications = *upd.EmailNotifications
	}
	if upd.WeeklyReport != nil {
		p.WeeklyReport = *upd.WeeklyReport
	}
	if upd.AlertSounds != nil {
		p.AlertSounds = *upd.AlertSounds
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

// --- fakeAuditRepo ---

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLogEntry
}

func (r *fakeAuditRepo) Insert(ctx context.Context, e model.AuditLogEntry) (*model.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, e)
	return &e, nil
}

func (r *fakeAuditRepo) List(ctx context.Context, f model.AuditLogFilter) ([]model.AuditLogEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.AuditLogEntry(nil), r.entries...), len(r.entries), nil
}

// byEvent возвращает записи журнала с данным типом события.
func (r *fakeAuditRepo) byEvent(et model.EventType) []model.AuditLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditLogEntry
	for _, e := range r.entries {
		if e.EventType == et {
			out = append(out, e)
		}
	}
	return out
}

// --- fakeNotificationRepo ---

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: make(map[uuid.UUID]*model.Notification)}
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) Insert(ctx context.Context, n model.Notification) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	cp := n
	r.notifications[n.ID] = &cp
	return &n, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.notifications, id)
	return nil
}

func (r *fakeNotificationRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.notifications {
		if n.UserID == userID {
			delete(r.notifications, id)
		}
	}
	return nil
}

// --- fakeStorageConfigRepo ---

type fakeStorageConfigRepo struct {
	mu  sync.Mutex
	cfg *model.StorageConfig
}

func (r *fakeStorageConfigRepo) Get(ctx context.Context) (*model.StorageConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil {
		return nil, repository.ErrNotFound
	}
	cp := *r.cfg
	return &cp, nil
}

func (r *fakeStorageConfigRepo) Update(ctx context.Context, c model.StorageConfig) (*model.StorageConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.UpdatedAt = time.Now()
	r.cfg = &c
	cp := c
	return &cp, nil
}

// --- fakeBlobStore ---

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte // key: bucket/path
	putErr    error
	removeErr error
	signErr   error
	removed   []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (b *fakeBlobStore) Put(ctx context.Context, bucket, path, contentType string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.objects[bucket+"/"+path] = data
	return nil
}

func (b *fakeBlobStore) Remove(ctx context.Context, bucket string, paths []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.removeErr != nil {
		return b.removeErr
	}
	for _, p := range paths {
		delete(b.objects, bucket+"/"+p)
		b.removed = append(b.removed, bucket+"/"+p)
	}
	return nil
}

func (b *fakeBlobStore) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	if b.signErr != nil {
		return "", b.signErr
	}
	return fmt.Sprintf("https://storage.test/%s/%s?ttl=%d", bucket, path, int(ttl.Seconds())), nil
}

func (b *fakeBlobStore) List(ctx context.Context, bucket, prefix string, limit int) ([]blobstore.ObjectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []blobstore.ObjectInfo
	for key := range b.objects {
		full := strings.TrimPrefix(key, bucket+"/")
		if strings.HasPrefix(full, prefix) {
			var o blobstore.ObjectInfo
			o.Name = strings.TrimPrefix(full, prefix+"/")
			out = append(out, o)
		}
	}
	return out, nil
}

// --- fakeSender ---

type fakeSender struct {
	mu      sync.Mutex
	sent    []mailer.Message
	sendErr error
}

func (s *fakeSender) Send(ctx context.Context, msg mailer.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sent = append(s.sent, msg)
	return fmt.Sprintf("msg-%d", len(s.sent)), nil
}

// --- fakeAccounts ---

type fakeAccounts struct {
	mu        sync.Mutex
	accounts  map[string]bool
	createErr error
	deleteErr error
	nextID    string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[string]bool)}
}

func (a *fakeAccounts) CreateAccount(ctx context.Context, email, password, fullName string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.createErr != nil {
		return "", a.createErr
	}
	id := a.nextID
	if id == "" {
		id = uuid.New().String()
	}
	a.accounts[id] = true
	return id, nil
}

func (a *fakeAccounts) DeleteAccount(ctx context.Context, accountID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.deleteErr != nil {
		return a.deleteErr
	}
	delete(a.accounts, accountID)
	return nil
}

// --- Профили для тестов ---

func staffProfile(role string) *model.Profile {
	return &model.Profile{
		ID:       uuid.New(),
		FullName: "Personal " + role,
		Email:    role + "@botanico.test",
		Role:     role,
		Status:   model.AccountActive,
	}
}

func newAuditService() (*AuditService, *fakeAuditRepo) {
	repo := &fakeAuditRepo{}
	return NewAuditService(repo, nil, testLogger()), repo
}
