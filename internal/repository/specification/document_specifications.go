package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByDocumentID filters by the numeric document id
type ByDocumentID struct {
	ID uint
}

func (s ByDocumentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.id = ?", s.ID)
}

// OwnedBy filters documents by owner
type OwnedBy struct {
	UserID uuid.UUID
}

func (s OwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("documents.owner_id = ?", s.UserID)
}

// AccessibleBy matches documents the user owns OR that were shared with
// them. This is the admission check for joining a document's room.
type AccessibleBy struct {
	UserID uuid.UUID
}

func (s AccessibleBy) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Joins("LEFT JOIN document_shares ON document_shares.document_id = documents.id AND document_shares.user_id = ?", s.UserID).
		Where("documents.owner_id = ? OR document_shares.user_id IS NOT NULL", s.UserID)
}
