package notify

import "github.com/teamtaskhq/teamtask-api/internal/models"

// Payload is the closed set of notification variants crossing the dispatch
// boundary. The dispatcher switches on the concrete type exhaustively.
type Payload interface {
	payload()
}

// InAppPayload becomes a notification row and a realtime feed event.
type InAppPayload struct {
	UserID         uint64
	OrganizationID uint64
	Type           models.NotificationType
	Title          string
	Content        string
	TaskID         uint64
	ActorID        uint64
	MutationID     string
}

// EmailPayload becomes a transactional email to one recipient.
type EmailPayload struct {
	To         string
	Recipient  string
	ActorName  string
	TaskID     uint64
	TaskTitle  string
	TaskURL    string
	MutationID string
}

func (InAppPayload) payload() {}
func (EmailPayload) payload() {}
