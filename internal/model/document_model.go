package model

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	OwnerId   uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(255);not null"`
	Content   string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Document) TableName() string {
	return "documents"
}

type DocumentShare struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId uint      `gorm:"not null;index:idx_share_document_user,unique"`
	UserId     uuid.UUID `gorm:"type:uuid;not null;index:idx_share_document_user,unique"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (DocumentShare) TableName() string {
	return "document_shares"
}
