package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/realtime"
)

type fakeStore struct {
	mu      sync.Mutex
	created []models.Notification
	err     error
}

func (s *fakeStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	n.ID = uint64(len(s.created) + 1)
	s.created = append(s.created, *n)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []EmailPayload
	err  error
}

func (m *fakeMailer) Send(p EmailPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, p)
	return nil
}

type fakeDirectory struct {
	users map[uint64]*models.User
}

func (d *fakeDirectory) FindByID(id uint64) (*models.User, error) {
	user, ok := d.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func newTestNotifier(store *fakeStore, mailer *fakeMailer, dir *fakeDirectory, hub *realtime.Hub) *Notifier {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewNotifier(store, mailer, dir, hub, log)
}

func testActor() *models.User {
	return &models.User{ID: 1, Name: "Aiko", Email: "aiko@example.com", OrganizationID: 1}
}

func testTask() *models.Task {
	return &models.Task{ID: 42, Title: "Ship release", OrganizationID: 1}
}

func TestNotifyAssignment_PartitionsSelfAndOthers(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	dir := &fakeDirectory{users: map[uint64]*models.User{
		2: {ID: 2, Name: "Ben", Email: "ben@example.com"},
	}}
	notifier := newTestNotifier(store, mailer, dir, nil)
	actor := testActor()

	notifier.NotifyAssignment(testTask(), []uint64{actor.ID, 2}, actor, "m-1")
	notifier.Drain(context.Background())

	require.Len(t, store.created, 2)

	byUser := map[uint64]models.Notification{}
	for _, n := range store.created {
		byUser[n.UserID] = n
	}

	self := byUser[1]
	assert.Equal(t, models.NotificationTypeSelfTaskAssigned, self.Type)
	assert.Contains(t, self.Content, "You assigned yourself")

	other := byUser[2]
	assert.Equal(t, models.NotificationTypeTaskAssigned, other.Type)
	assert.Contains(t, other.Content, "You've been assigned")
	assert.Contains(t, other.Content, "Aiko")

	// Email goes to the other assignee only.
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ben@example.com", mailer.sent[0].To)
	assert.Equal(t, "Ship release", mailer.sent[0].TaskTitle)
	assert.Equal(t, "/tasks/42", mailer.sent[0].TaskURL)
}

func TestNotifyAssignment_SelfOnlyNeverEmails(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	notifier := newTestNotifier(store, mailer, &fakeDirectory{}, nil)
	actor := testActor()

	notifier.NotifyAssignment(testTask(), []uint64{actor.ID}, actor, "m-2")
	notifier.Drain(context.Background())

	require.Len(t, store.created, 1)
	assert.Empty(t, mailer.sent)
}

func TestNotifyAssignment_DeduplicatesRecipients(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	dir := &fakeDirectory{users: map[uint64]*models.User{
		2: {ID: 2, Name: "Ben", Email: "ben@example.com"},
	}}
	notifier := newTestNotifier(store, mailer, dir, nil)
	actor := testActor()

	// Same user named by both the single-assignee field and the set.
	notifier.NotifyAssignment(testTask(), []uint64{2, 2}, actor, "m-3")
	notifier.Drain(context.Background())

	assert.Len(t, store.created, 1)
	assert.Len(t, mailer.sent, 1)
}

func TestNotifyAssignment_StoreFailureDoesNotBlockOthers(t *testing.T) {
	store := &fakeStore{err: errors.New("insert failed")}
	mailer := &fakeMailer{}
	dir := &fakeDirectory{users: map[uint64]*models.User{
		2: {ID: 2, Name: "Ben", Email: "ben@example.com"},
		3: {ID: 3, Name: "Cho", Email: "cho@example.com"},
	}}
	notifier := newTestNotifier(store, mailer, dir, nil)

	notifier.NotifyAssignment(testTask(), []uint64{2, 3}, testActor(), "m-4")
	notifier.Drain(context.Background())

	// In-app writes all failed, emails still delivered.
	assert.Empty(t, store.created)
	assert.Len(t, mailer.sent, 2)
}

func TestNotifyAssignment_RecipientLookupFailureSkipsEmailOnly(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	notifier := newTestNotifier(store, mailer, &fakeDirectory{}, nil)

	notifier.NotifyAssignment(testTask(), []uint64{2}, testActor(), "m-5")
	notifier.Drain(context.Background())

	assert.Len(t, store.created, 1)
	assert.Empty(t, mailer.sent)
}

func TestDispatch_PublishesToRealtimeFeed(t *testing.T) {
	store := &fakeStore{}
	hub := realtime.NewHub()
	notifier := newTestNotifier(store, &fakeMailer{}, &fakeDirectory{}, hub)

	feed, cancel := hub.Subscribe(5)
	defer cancel()

	notifier.Enqueue(InAppPayload{
		UserID:         5,
		OrganizationID: 1,
		Type:           models.NotificationTypeTaskAssigned,
		Title:          "Task assigned",
		Content:        "You've been assigned",
	})
	notifier.Drain(context.Background())

	select {
	case n := <-feed:
		assert.Equal(t, uint64(5), n.UserID)
		assert.NotZero(t, n.ID)
	default:
		t.Fatal("expected a realtime feed event")
	}
}

func TestEnqueue_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	notifier := newTestNotifier(&fakeStore{}, &fakeMailer{}, &fakeDirectory{}, nil)

	for i := 0; i < queueBuffer*2; i++ {
		notifier.Enqueue(InAppPayload{UserID: uint64(i)})
	}
	// Reaching here without deadlock is the assertion.
}

func TestNotifyAssignment_ManyRecipients(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	dir := &fakeDirectory{users: map[uint64]*models.User{}}
	for i := uint64(2); i <= 11; i++ {
		dir.users[i] = &models.User{ID: i, Name: fmt.Sprintf("user%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
	}
	notifier := newTestNotifier(store, mailer, dir, nil)

	ids := make([]uint64, 0, 10)
	for i := uint64(2); i <= 11; i++ {
		ids = append(ids, i)
	}
	notifier.NotifyAssignment(testTask(), ids, testActor(), "m-6")
	notifier.Drain(context.Background())

	assert.Len(t, store.created, 10)
	assert.Len(t, mailer.sent, 10)
}
