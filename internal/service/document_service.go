package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"talkwrite-be/internal/dto"
	"talkwrite-be/internal/entity"
	"talkwrite-be/internal/repository/memory"
	"talkwrite-be/internal/repository/specification"
	"talkwrite-be/internal/repository/unitofwork"
	"talkwrite-be/pkg/draftjs"
	"talkwrite-be/pkg/events"
	pktNats "talkwrite-be/pkg/nats"

	"github.com/google/uuid"
)

// ErrDocumentUnavailable means the document does not exist or the user has
// neither ownership nor a share grant for it.
var ErrDocumentUnavailable = errors.New("document not found or not accessible")

type IDocumentService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error)
	Show(ctx context.Context, userId uuid.UUID, id uint) (*dto.ShowDocumentResponse, error)
	List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentItem, error)
	Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, id uint) error
	Share(ctx context.Context, userId uuid.UUID, req *dto.ShareDocumentRequest) (*dto.ShareDocumentResponse, error)
	Unshare(ctx context.Context, ownerId uuid.UUID, documentId uint, userId uuid.UUID) error

	// FindForUser loads a document iff the user may access it.
	FindForUser(ctx context.Context, documentId uint, userId uuid.UUID) (*entity.Document, error)

	// CanAccess is the socket admission check. Recent positive decisions are
	// served from the access cache so reconnect storms skip the database.
	CanAccess(ctx context.Context, documentId uint, userId uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	accessCache      *memory.AccessCache
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	accessCache *memory.AccessCache,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		accessCache:      accessCache,
	}
}

func (s *documentService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateDocumentRequest) (*dto.CreateDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// A new document starts as a single empty unstyled block so the editor
	// has a valid tree to decode.
	content, err := draftjs.Encode(draftjs.CreateEmpty())
	if err != nil {
		return nil, err
	}

	document := entity.Document{
		OwnerId:   userId,
		Title:     req.Title,
		Content:   content,
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	return &dto.CreateDocumentResponse{Id: document.Id}, nil
}

func (s *documentService) Show(ctx context.Context, userId uuid.UUID, id uint) (*dto.ShowDocumentResponse, error) {
	document, err := s.FindForUser(ctx, id, userId)
	if err != nil {
		return nil, err
	}

	return &dto.ShowDocumentResponse{
		Id:        document.Id,
		OwnerId:   document.OwnerId,
		Title:     document.Title,
		Content:   document.Content,
		CreatedAt: document.CreatedAt,
		UpdatedAt: document.UpdatedAt,
	}, nil
}

func (s *documentService) List(ctx context.Context, userId uuid.UUID) ([]*dto.ListDocumentItem, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.AccessibleBy{UserID: userId},
		specification.OrderBy{Field: "documents.updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ListDocumentItem, 0, len(documents))
	for _, d := range documents {
		items = append(items, &dto.ListDocumentItem{
			Id:        d.Id,
			OwnerId:   d.OwnerId,
			Title:     d.Title,
			UpdatedAt: d.UpdatedAt,
		})
	}
	return items, nil
}

func (s *documentService) Update(ctx context.Context, userId uuid.UUID, req *dto.UpdateDocumentRequest) (*dto.UpdateDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByDocumentID{ID: req.Id},
		specification.AccessibleBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, ErrDocumentUnavailable
	}

	now := time.Now()
	document.Title = req.Title
	document.Content = req.Content
	document.UpdatedAt = &now

	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		return nil, err
	}

	s.publishSaved(ctx, document, userId)

	return &dto.UpdateDocumentResponse{
		Id:        document.Id,
		UpdatedAt: document.UpdatedAt,
	}, nil
}

func (s *documentService) publishSaved(ctx context.Context, document *entity.Document, userId uuid.UUID) {
	if s.publisherService != nil {
		msg := dto.DocumentSavedMessage{
			DocumentId: document.Id,
			UserId:     userId,
			SavedAt:    time.Now(),
		}
		if payload, err := json.Marshal(msg); err == nil {
			// Save bookkeeping is auxiliary; the request must not fail on it.
			_ = s.publisherService.Publish(ctx, payload)
		}
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeDocumentSaved,
			Data: map[string]interface{}{
				"document_id": document.Id,
				"user_id":     userId,
			},
			OccurredAt: time.Now(),
		}
		_ = s.eventPublisher.Publish(ctx, evt)
	}
}

func (s *documentService) Delete(ctx context.Context, userId uuid.UUID, id uint) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByDocumentID{ID: id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return ErrDocumentUnavailable
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	shares, err := uow.DocumentRepository().FindShares(ctx, id)
	if err != nil {
		return err
	}
	for _, share := range shares {
		if err := uow.DocumentRepository().DeleteShare(ctx, id, share.UserId); err != nil {
			return err
		}
		s.accessCache.Invalidate(id, share.UserId)
	}

	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *documentService) Share(ctx context.Context, userId uuid.UUID, req *dto.ShareDocumentRequest) (*dto.ShareDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByDocumentID{ID: req.Id},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, ErrDocumentUnavailable
	}

	target, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.New("no user with that email")
	}
	if target.Id == userId {
		return nil, errors.New("cannot share a document with its owner")
	}

	share := entity.DocumentShare{
		Id:         uuid.New(),
		DocumentId: req.Id,
		UserId:     target.Id,
		CreatedAt:  time.Now(),
	}
	if err := uow.DocumentRepository().CreateShare(ctx, &share); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeDocumentShared,
			Data: map[string]interface{}{
				"document_id": req.Id,
				"user_id":     target.Id,
			},
			OccurredAt: time.Now(),
		}
		_ = s.eventPublisher.Publish(ctx, evt)
	}

	return &dto.ShareDocumentResponse{Id: share.Id, UserId: target.Id}, nil
}

func (s *documentService) Unshare(ctx context.Context, ownerId uuid.UUID, documentId uint, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByDocumentID{ID: documentId},
		specification.OwnedBy{UserID: ownerId},
	)
	if err != nil {
		return err
	}
	if document == nil {
		return ErrDocumentUnavailable
	}

	if err := uow.DocumentRepository().DeleteShare(ctx, documentId, userId); err != nil {
		return err
	}

	// Revoked collaborators must not be readmitted from a cached decision.
	s.accessCache.Invalidate(documentId, userId)

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeDocumentUnshared,
			Data: map[string]interface{}{
				"document_id": documentId,
				"user_id":     userId,
			},
			OccurredAt: time.Now(),
		}
		_ = s.eventPublisher.Publish(ctx, evt)
	}

	return nil
}

func (s *documentService) FindForUser(ctx context.Context, documentId uint, userId uuid.UUID) (*entity.Document, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByDocumentID{ID: documentId},
		specification.AccessibleBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, ErrDocumentUnavailable
	}

	s.accessCache.MarkAuthorized(documentId, userId)
	return document, nil
}

func (s *documentService) CanAccess(ctx context.Context, documentId uint, userId uuid.UUID) error {
	if s.accessCache.IsAuthorized(documentId, userId) {
		return nil
	}
	_, err := s.FindForUser(ctx, documentId, userId)
	return err
}
