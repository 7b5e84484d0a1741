package contract

import (
	"context"

	"talkwrite-be/internal/entity"
	"talkwrite-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uint) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)

	CreateShare(ctx context.Context, share *entity.DocumentShare) error
	DeleteShare(ctx context.Context, documentId uint, userId uuid.UUID) error
	FindShares(ctx context.Context, documentId uint) ([]*entity.DocumentShare, error)
}
