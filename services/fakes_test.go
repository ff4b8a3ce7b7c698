package services

import (
	"context"
	"sync"
	"time"

	"agentcrm-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock(now time.Time) *fixedClock {
	return &fixedClock{now: now}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memStore is an in-memory implementation of every store the engine uses.
type memStore struct {
	mu    sync.Mutex
	clock Clock

	clients   []models.Client
	reminders []*models.Reminder
	usage     map[string]*models.SMSUsage
	quotas    map[uuid.UUID]*int
	activity  []models.ActivityLog

	// lostRace makes the next CreateUsage behave as if a concurrent insert won.
	lostRace bool
}

func newMemStore(clock Clock) *memStore {
	return &memStore{
		clock:  clock,
		usage:  make(map[string]*models.SMSUsage),
		quotas: make(map[uuid.UUID]*int),
	}
}

func (s *memStore) addClient(c models.Client) models.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Status == "" {
		c.Status = models.ClientActive
	}
	s.clients = append(s.clients, c)
	return c
}

func (s *memStore) ListReminderEligibleClients(_ context.Context) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Client
	for _, c := range s.clients {
		if c.Status == models.ClientActive && c.RemindersEnabled && c.ExpiryDate != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memStore) GetClient(_ context.Context, userID, clientID uuid.UUID) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.clients {
		if s.clients[i].ID == clientID && s.clients[i].UserID == userID {
			c := s.clients[i]
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) CreateReminder(_ context.Context, r *models.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = s.clock.Now()
	}
	s.reminders = append(s.reminders, &cp)
	return nil
}

func (s *memStore) UpdateReminderOutcome(_ context.Context, id uuid.UUID, o ReminderOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		if r.ID == id {
			r.Status = o.Status
			r.DeliveryStatus = o.DeliveryStatus
			r.FailureReason = o.FailureReason
			r.SentDate = o.SentDate
			r.Cost = o.Cost
			r.ProviderMessageID = o.ProviderMessageID
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) ListDueScheduledReminders(_ context.Context, now time.Time) ([]models.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.Status != models.ReminderScheduled || r.ScheduledDate == nil || r.ScheduledDate.After(now) {
			continue
		}
		cp := *r
		for i := range s.clients {
			if s.clients[i].ID == r.ClientID {
				c := s.clients[i]
				cp.Client = &c
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (s *memStore) ReminderExistsSince(_ context.Context, clientID uuid.UUID, days int, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reminders {
		if r.ClientID == clientID && r.DaysBeforeExpiry != nil && *r.DaysBeforeExpiry == days && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func usageKey(userID uuid.UUID, month time.Time) string {
	return userID.String() + "/" + month.Format("2006-01")
}

func (s *memStore) FindUsage(_ context.Context, userID uuid.UUID, month time.Time) (*models.SMSUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.usage[usageKey(userID, month)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (s *memStore) CreateUsage(_ context.Context, u *models.SMSUsage) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usageKey(u.UserID, u.Month)
	if s.lostRace {
		s.lostRace = false
		s.usage[key] = &models.SMSUsage{ID: uuid.New(), UserID: u.UserID, Month: u.Month, SMSSent: 1, QuotaLimit: u.QuotaLimit}
		return false, nil
	}
	if _, ok := s.usage[key]; ok {
		return false, nil
	}
	cp := *u
	s.usage[key] = &cp
	return true, nil
}

func (s *memStore) IncrementUsage(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.usage {
		if row.ID == id {
			row.SMSSent++
			return nil
		}
	}
	return ErrNotFound
}

func (s *memStore) PlanSMSQuota(_ context.Context, userID uuid.UUID) (*int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotas[userID], nil
}

func (s *memStore) CreateActivityLog(_ context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, *entry)
	return nil
}

func (s *memStore) remindersFor(clientID uuid.UUID) []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reminder
	for _, r := range s.reminders {
		if r.ClientID == clientID {
			out = append(out, *r)
		}
	}
	return out
}

func (s *memStore) allReminders() []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, *r)
	}
	return out
}

func (s *memStore) smsSent(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.usage[usageKey(userID, monthOf(s.clock.Now()))]
	if !ok {
		return 0
	}
	return row.SMSSent
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

type mockMessageTransport struct {
	mock.Mock
}

func (m *mockMessageTransport) SendMessage(ctx context.Context, from, to, body string) (*MessageReceipt, error) {
	args := m.Called(ctx, from, to, body)
	receipt, _ := args.Get(0).(*MessageReceipt)
	return receipt, args.Error(1)
}

type mockMailTransport struct {
	mock.Mock
}

func (m *mockMailTransport) SendMail(ctx context.Context, mail Mail) (string, error) {
	args := m.Called(ctx, mail)
	return args.String(0), args.Error(1)
}

// engineFixtures wires all three channels over one memStore.
type engineFixtures struct {
	clock    *fixedClock
	store    *memStore
	sms      *mockMessageTransport
	whatsapp *mockMessageTransport
	mail     *mockMailTransport
	usage    *UsageTracker
	channels ChannelSet
}

const (
	testSMSFrom      = "+15550000000"
	testWhatsAppFrom = "+15559999999"
	testEmailFrom    = "agent@example.com"
)

func newEngineFixtures(now time.Time) *engineFixtures {
	clock := newFixedClock(now)
	store := newMemStore(clock)
	fx := &engineFixtures{
		clock:    clock,
		store:    store,
		sms:      &mockMessageTransport{},
		whatsapp: &mockMessageTransport{},
		mail:     &mockMailTransport{},
		usage:    NewUsageTracker(store, clock),
	}
	log := zap.NewNop()
	fx.channels = NewChannelSet(
		NewSMSChannel(fx.sms, testSMSFrom, DefaultSMSCost, store, fx.usage, clock, log),
		NewWhatsAppChannel(fx.whatsapp, testWhatsAppFrom, store, clock, log),
		NewEmailChannel(fx.mail, testEmailFrom, store, clock, log),
	)
	return fx
}

func (fx *engineFixtures) scheduler(quota QuotaChecker) *ReminderScheduler {
	return NewReminderScheduler(SchedulerOptions{
		Clients:   fx.store,
		Reminders: fx.store,
		Activity:  fx.store,
		Channels:  fx.channels,
		Quota:     quota,
		Clock:     fx.clock,
		Logger:    zap.NewNop(),
	})
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func intPtr(v int) *int { return &v }
