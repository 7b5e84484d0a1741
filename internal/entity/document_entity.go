package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document is a persisted rich-text document. Content is an opaque
// serialized content tree; storage never inspects it.
type Document struct {
	Id        uint
	OwnerId   uuid.UUID
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// DocumentShare grants a non-owner read/write access to a document.
// A share is what lets a second collaborator join the document's room.
type DocumentShare struct {
	Id         uuid.UUID
	DocumentId uint
	UserId     uuid.UUID
	CreatedAt  time.Time
}
