package services

import "denuncias/internal/models"

// EventPublisher delivers complaint lifecycle events. A nil publisher
// disables publication.
type EventPublisher interface {
	PublishComplaintEvent(event models.ComplaintEvent) error
}
