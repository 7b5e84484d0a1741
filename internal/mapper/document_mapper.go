package mapper

import (
	"time"

	"talkwrite-be/internal/entity"
	"talkwrite-be/internal/model"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

func (m *DocumentMapper) ToEntity(d *model.Document) *entity.Document {
	if d == nil {
		return nil
	}

	var updatedAt *time.Time
	if !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt
		updatedAt = &t
	}

	return &entity.Document{
		Id:        d.Id,
		OwnerId:   d.OwnerId,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *DocumentMapper) ToEntities(models []*model.Document) []*entity.Document {
	entities := make([]*entity.Document, 0, len(models))
	for _, d := range models {
		entities = append(entities, m.ToEntity(d))
	}
	return entities
}

func (m *DocumentMapper) ToModel(d *entity.Document) *model.Document {
	if d == nil {
		return nil
	}

	out := &model.Document{
		Id:        d.Id,
		OwnerId:   d.OwnerId,
		Title:     d.Title,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
	if d.UpdatedAt != nil {
		out.UpdatedAt = *d.UpdatedAt
	}
	return out
}

func (m *DocumentMapper) ShareToEntity(s *model.DocumentShare) *entity.DocumentShare {
	if s == nil {
		return nil
	}
	return &entity.DocumentShare{
		Id:         s.Id,
		DocumentId: s.DocumentId,
		UserId:     s.UserId,
		CreatedAt:  s.CreatedAt,
	}
}

func (m *DocumentMapper) ShareToModel(s *entity.DocumentShare) *model.DocumentShare {
	if s == nil {
		return nil
	}
	return &model.DocumentShare{
		Id:         s.Id,
		DocumentId: s.DocumentId,
		UserId:     s.UserId,
		CreatedAt:  s.CreatedAt,
	}
}
