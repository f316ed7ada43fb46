package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DocumentRepository is the persistence contract for documents, versions,
// folders and tags
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error
	AddVersion(ctx context.Context, v *domain.DocumentVersion) error
	ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error)
	CountVersions(ctx context.Context, documentID uuid.UUID) (int, error)
	CreateFolder(ctx context.Context, f *domain.Folder) error
	GetFolder(ctx context.Context, id uuid.UUID) (*domain.Folder, error)
	ListFolders(ctx context.Context, ownerID uuid.UUID) ([]domain.Folder, error)
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
	AttachTag(ctx context.Context, dt *domain.DocumentTag) error
	DetachTag(ctx context.Context, documentID, tagID uuid.UUID) error
	ListDocumentTags(ctx context.Context, documentID uuid.UUID) ([]domain.Tag, error)
}

// DocumentService handles document management operations
type DocumentService struct {
	documentRepo DocumentRepository
	files        storage.FileStore
	tx           TxManager
}

// NewDocumentService creates a new document service
func NewDocumentService(documentRepo DocumentRepository, files storage.FileStore, tx TxManager) *DocumentService {
	return &DocumentService{documentRepo: documentRepo, files: files, tx: tx}
}

// Create creates a new draft document
func (s *DocumentService) Create(ctx context.Context, ownerID uuid.UUID, input domain.DocumentCreate) (*domain.Document, error) {
	if input.FolderID != nil {
		folder, err := s.documentRepo.GetFolder(ctx, *input.FolderID)
		if err != nil {
			return nil, fmt.Errorf("failed to get folder: %w", err)
		}
		if folder == nil {
			return nil, domain.NotFoundError("FOLDER_NOT_FOUND", "folder %s not found", *input.FolderID)
		}
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.DocumentStatusDraft,
		OwnerID:     ownerID,
		FolderID:    input.FolderID,
		CreatedAt:   now,
		UpdatedAt:   now,
		UpdatedBy:   ownerID,
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return doc, nil
}

// Get retrieves a document with its versions and tags
func (s *DocumentService) Get(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return nil, domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", id)
	}

	if doc.Versions, err = s.documentRepo.ListVersions(ctx, id); err != nil {
		return nil, err
	}
	if doc.Tags, err = s.documentRepo.ListDocumentTags(ctx, id); err != nil {
		return nil, err
	}

	return doc, nil
}

// ListByOwner retrieves an owner's documents
func (s *DocumentService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.documentRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// UploadVersion validates and stores a new file revision. Only draft or
// rejected documents accept uploads; an upload to a rejected document moves
// it back to draft.
func (s *DocumentService) UploadVersion(ctx context.Context, documentID, userID uuid.UUID, roles []string, fileName, mimeType string, content io.Reader) (*domain.DocumentVersion, error) {
	fileName, err := domain.ValidateFileName(fileName)
	if err != nil {
		return nil, err
	}
	mimeType, err = domain.ValidateMimeType(mimeType)
	if err != nil {
		return nil, err
	}

	storagePath, size, err := s.files.Save(fileName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	var version *domain.DocumentVersion
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		doc, err := s.documentRepo.GetByIDForUpdate(ctx, documentID)
		if err != nil {
			return fmt.Errorf("failed to get document: %w", err)
		}
		if doc == nil {
			return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", documentID)
		}
		if err := doc.EnsureCanBeModifiedBy(userID, roles); err != nil {
			return err
		}

		now := time.Now().UTC()
		version = &domain.DocumentVersion{
			ID:            uuid.New(),
			DocumentID:    documentID,
			VersionNumber: doc.NextVersionNumber(),
			FileName:      fileName,
			MimeType:      mimeType,
			FileSize:      size,
			StoragePath:   storagePath,
			UploadedBy:    userID,
			UploadedAt:    now,
		}
		if err := s.documentRepo.AddVersion(ctx, version); err != nil {
			return err
		}

		doc.CurrentVersion = version.VersionNumber
		doc.Status = domain.DocumentStatusDraft
		doc.UpdatedAt = now
		doc.UpdatedBy = userID
		return s.documentRepo.Update(ctx, doc)
	})
	if err != nil {
		// the stored file is orphaned if the transaction failed
		if delErr := s.files.Delete(storagePath); delErr != nil {
			log.Warn().Err(delErr).Str("path", storagePath).Msg("failed to clean up orphaned file")
		}
		return nil, err
	}

	return version, nil
}

// OpenVersion returns a reader for a stored version's file content
func (s *DocumentService) OpenVersion(ctx context.Context, documentID uuid.UUID, versionNumber int) (*domain.DocumentVersion, io.ReadCloser, error) {
	versions, err := s.documentRepo.ListVersions(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	for i := range versions {
		if versions[i].VersionNumber == versionNumber {
			rc, err := s.files.Open(versions[i].StoragePath)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open stored file: %w", err)
			}
			return &versions[i], rc, nil
		}
	}
	return nil, nil, domain.NotFoundError("DOCUMENT_VERSION_NOT_FOUND",
		"document %s has no version %d", documentID, versionNumber)
}

// Delete soft-deletes a document; owner or admin only
func (s *DocumentService) Delete(ctx context.Context, id, userID uuid.UUID, roles []string) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", id)
	}
	if doc.OwnerID != userID && !domain.HasRole(roles, domain.RoleAdmin) {
		return domain.ForbiddenError("UNAUTHORIZED_DOCUMENT_ACCESS",
			"user %s may not delete document %s", userID, id)
	}

	return s.documentRepo.SoftDelete(ctx, id, time.Now().UTC())
}

// CreateFolder creates a folder for grouping documents
func (s *DocumentService) CreateFolder(ctx context.Context, ownerID uuid.UUID, input domain.FolderCreate) (*domain.Folder, error) {
	if input.ParentID != nil {
		parent, err := s.documentRepo.GetFolder(ctx, *input.ParentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent folder: %w", err)
		}
		if parent == nil {
			return nil, domain.NotFoundError("FOLDER_NOT_FOUND", "folder %s not found", *input.ParentID)
		}
	}

	folder := &domain.Folder{
		ID:        uuid.New(),
		Name:      input.Name,
		ParentID:  input.ParentID,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.documentRepo.CreateFolder(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	return folder, nil
}

// ListFolders returns an owner's folders
func (s *DocumentService) ListFolders(ctx context.Context, ownerID uuid.UUID) ([]domain.Folder, error) {
	return s.documentRepo.ListFolders(ctx, ownerID)
}

// CreateTag creates a tag
func (s *DocumentService) CreateTag(ctx context.Context, input domain.TagCreate) (*domain.Tag, error) {
	tag := &domain.Tag{
		ID:        uuid.New(),
		Name:      input.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.documentRepo.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// ListTags returns all tags
func (s *DocumentService) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.documentRepo.ListTags(ctx)
}

// AttachTag links a tag to a document; draft-state and ownership rules apply
func (s *DocumentService) AttachTag(ctx context.Context, documentID, tagID, userID uuid.UUID, roles []string) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", documentID)
	}
	if err := doc.EnsureCanBeModifiedBy(userID, roles); err != nil {
		return err
	}

	tag, err := s.documentRepo.GetTag(ctx, tagID)
	if err != nil {
		return fmt.Errorf("failed to get tag: %w", err)
	}
	if tag == nil {
		return domain.NotFoundError("TAG_NOT_FOUND", "tag %s not found", tagID)
	}

	return s.documentRepo.AttachTag(ctx, &domain.DocumentTag{
		DocumentID: documentID,
		TagID:      tagID,
		AssignedAt: time.Now().UTC(),
	})
}

// DetachTag unlinks a tag from a document
func (s *DocumentService) DetachTag(ctx context.Context, documentID, tagID, userID uuid.UUID, roles []string) error {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", documentID)
	}
	if err := doc.EnsureCanBeModifiedBy(userID, roles); err != nil {
		return err
	}

	return s.documentRepo.DetachTag(ctx, documentID, tagID)
}
