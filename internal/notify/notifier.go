// Package notify computes assignment notification fan-out and dispatches it
// on a background queue. Everything here is fire-and-forget from the
// mutation path's point of view: failures are logged, never returned to the
// caller that changed the task.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/teamtaskhq/teamtask-api/internal/models"
	"github.com/teamtaskhq/teamtask-api/internal/realtime"
)

const queueBuffer = 256

// NotificationStore persists in-app notification rows.
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// EmailSender delivers one transactional email.
type EmailSender interface {
	Send(payload EmailPayload) error
}

// UserDirectory resolves recipients for email dispatch.
type UserDirectory interface {
	FindByID(id uint64) (*models.User, error)
}

// Notifier computes the fan-out set for assignment mutations and feeds the
// dispatch queue. Run must be started once; Enqueue and NotifyAssignment are
// safe from any goroutine and never block.
type Notifier struct {
	store  NotificationStore
	mailer EmailSender
	users  UserDirectory
	hub    *realtime.Hub
	log    *logrus.Logger
	queue  chan Payload
}

func NewNotifier(store NotificationStore, mailer EmailSender, users UserDirectory, hub *realtime.Hub, log *logrus.Logger) *Notifier {
	return &Notifier{
		store:  store,
		mailer: mailer,
		users:  users,
		hub:    hub,
		log:    log,
		queue:  make(chan Payload, queueBuffer),
	}
}

// NotifyAssignment fans one assignment mutation out to its recipients.
// Every assignee gets an in-app notification; assignees other than the actor
// additionally get an email. Duplicate ids (the same user in both the
// single-assignee field and the multi-assignee set) produce one notification.
func (n *Notifier) NotifyAssignment(task *models.Task, assigneeIDs []uint64, actor *models.User, mutationID string) {
	seen := make(map[uint64]struct{}, len(assigneeIDs))

	for _, userID := range assigneeIDs {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}

		if userID == actor.ID {
			n.Enqueue(InAppPayload{
				UserID:         userID,
				OrganizationID: task.OrganizationID,
				Type:           models.NotificationTypeSelfTaskAssigned,
				Title:          "Task assigned",
				Content:        fmt.Sprintf("You assigned yourself to %q", task.Title),
				TaskID:         task.ID,
				ActorID:        actor.ID,
				MutationID:     mutationID,
			})
			continue
		}

		n.Enqueue(InAppPayload{
			UserID:         userID,
			OrganizationID: task.OrganizationID,
			Type:           models.NotificationTypeTaskAssigned,
			Title:          "Task assigned",
			Content:        fmt.Sprintf("You've been assigned to %q by %s", task.Title, actor.Name),
			TaskID:         task.ID,
			ActorID:        actor.ID,
			MutationID:     mutationID,
		})

		recipient, err := n.users.FindByID(userID)
		if err != nil {
			n.log.WithFields(logrus.Fields{
				"mutation_id": mutationID,
				"user_id":     userID,
			}).WithError(err).Warn("skipping assignment email, recipient lookup failed")
			continue
		}

		n.Enqueue(EmailPayload{
			To:         recipient.Email,
			Recipient:  recipient.Name,
			ActorName:  actor.Name,
			TaskID:     task.ID,
			TaskTitle:  task.Title,
			TaskURL:    fmt.Sprintf("/tasks/%d", task.ID),
			MutationID: mutationID,
		})
	}
}

// Enqueue hands a payload to the dispatcher without blocking. When the queue
// is full the payload is dropped and logged; losing a notification is
// preferable to stalling a mutation.
func (n *Notifier) Enqueue(payload Payload) {
	select {
	case n.queue <- payload:
	default:
		n.log.WithField("payload", fmt.Sprintf("%T", payload)).
			Warn("notification queue full, dropping payload")
	}
}

// Run drains the dispatch queue until ctx is cancelled. One recipient's
// failure never blocks another's; every failure is logged and dropped.
func (n *Notifier) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			n.log.Info("notification dispatcher shutting down")
			return
		case payload := <-n.queue:
			n.dispatch(ctx, payload)
		}
	}
}

// Drain synchronously dispatches everything currently queued. Used in tests
// and during shutdown.
func (n *Notifier) Drain(ctx context.Context) {
	for {
		select {
		case payload := <-n.queue:
			n.dispatch(ctx, payload)
		default:
			return
		}
	}
}

func (n *Notifier) dispatch(ctx context.Context, payload Payload) {
	switch p := payload.(type) {
	case InAppPayload:
		n.dispatchInApp(ctx, p)
	case EmailPayload:
		n.dispatchEmail(p)
	default:
		n.log.WithField("payload", fmt.Sprintf("%T", payload)).
			Error("unhandled notification payload variant")
	}
}

func (n *Notifier) dispatchInApp(ctx context.Context, p InAppPayload) {
	metadata, _ := json.Marshal(map[string]interface{}{
		"task_id":     p.TaskID,
		"actor_id":    p.ActorID,
		"mutation_id": p.MutationID,
	})

	notification := &models.Notification{
		UserID:         p.UserID,
		OrganizationID: p.OrganizationID,
		Type:           p.Type,
		Title:          p.Title,
		Content:        p.Content,
		Metadata:       string(metadata),
	}

	if err := n.store.Create(ctx, notification); err != nil {
		n.log.WithFields(logrus.Fields{
			"mutation_id": p.MutationID,
			"user_id":     p.UserID,
		}).WithError(err).Error("failed to store in-app notification")
		return
	}

	if n.hub != nil {
		n.hub.Publish(*notification)
	}
}

func (n *Notifier) dispatchEmail(p EmailPayload) {
	if err := n.mailer.Send(p); err != nil {
		n.log.WithFields(logrus.Fields{
			"mutation_id": p.MutationID,
			"to":          p.To,
		}).WithError(err).Error("failed to send assignment email")
	}
}
