package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateDocumentRequest struct {
	Title string `json:"title" validate:"required,max=255"`
}

type CreateDocumentResponse struct {
	Id uint `json:"id"`
}

type UpdateDocumentRequest struct {
	Id      uint   `json:"-"`
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content"`
}

type UpdateDocumentResponse struct {
	Id        uint       `json:"id"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ShowDocumentResponse struct {
	Id        uint       `json:"id"`
	OwnerId   uuid.UUID  `json:"owner_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type ListDocumentItem struct {
	Id        uint       `json:"id"`
	OwnerId   uuid.UUID  `json:"owner_id"`
	Title     string     `json:"title"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// DocumentSavedMessage is the in-process pubsub payload emitted after a
// successful save.
type DocumentSavedMessage struct {
	DocumentId uint      `json:"document_id"`
	UserId     uuid.UUID `json:"user_id"`
	SavedAt    time.Time `json:"saved_at"`
}

type ShareDocumentRequest struct {
	Id    uint   `json:"-"`
	Email string `json:"email" validate:"required,email"`
}

type ShareDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	UserId uuid.UUID `json:"user_id"`
}
