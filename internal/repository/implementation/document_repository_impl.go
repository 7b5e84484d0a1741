package implementation

import (
	"context"
	"errors"

	"talkwrite-be/internal/entity"
	"talkwrite-be/internal/mapper"
	"talkwrite-be/internal/model"
	"talkwrite-be/internal/repository/contract"
	"talkwrite-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*document = *r.mapper.ToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.Document{}, id).Error
}

func (r *DocumentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Document{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *DocumentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	var models []*model.Document
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Document{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentRepositoryImpl) CreateShare(ctx context.Context, share *entity.DocumentShare) error {
	m := r.mapper.ShareToModel(share)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*share = *r.mapper.ShareToEntity(m)
	return nil
}

func (r *DocumentRepositoryImpl) DeleteShare(ctx context.Context, documentId uint, userId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("document_id = ? AND user_id = ?", documentId, userId).
		Delete(&model.DocumentShare{}).Error
}

func (r *DocumentRepositoryImpl) FindShares(ctx context.Context, documentId uint) ([]*entity.DocumentShare, error) {
	var models []*model.DocumentShare
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentId).Find(&models).Error; err != nil {
		return nil, err
	}
	shares := make([]*entity.DocumentShare, 0, len(models))
	for _, m := range models {
		shares = append(shares, r.mapper.ShareToEntity(m))
	}
	return shares, nil
}
