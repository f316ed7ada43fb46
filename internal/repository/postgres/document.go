package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRepository handles document, version, folder and tag data access.
// Every read path filters soft-deleted rows explicitly.
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create persists a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents
			(id, title, description, status, current_version, owner_id, folder_id, created_at, updated_at, updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		doc.ID, doc.Title, doc.Description, doc.Status, doc.CurrentVersion,
		doc.OwnerID, doc.FolderID, doc.CreatedAt, doc.UpdatedAt, doc.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

const documentColumns = `id, title, COALESCE(description, ''), status, current_version, owner_id, folder_id, created_at, updated_at, updated_by`

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Description, &doc.Status, &doc.CurrentVersion,
		&doc.OwnerID, &doc.FolderID, &doc.CreatedAt, &doc.UpdatedAt, &doc.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	return &doc, nil
}

// GetByID retrieves a non-deleted document
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted_at IS NULL`
	return scanDocument(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// GetByIDForUpdate retrieves a non-deleted document holding a row lock
func (r *DocumentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`
	return scanDocument(r.db.querier(ctx).QueryRow(ctx, query, id))
}

// ListByOwner retrieves an owner's non-deleted documents, newest first
func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(
			&doc.ID, &doc.Title, &doc.Description, &doc.Status, &doc.CurrentVersion,
			&doc.OwnerID, &doc.FolderID, &doc.CreatedAt, &doc.UpdatedAt, &doc.UpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Update persists the mutable fields of a document
func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	query := `
		UPDATE documents
		SET title = $2, description = $3, status = $4, current_version = $5,
		    folder_id = $6, updated_at = $7, updated_by = $8
		WHERE id = $1 AND deleted_at IS NULL
	`

	tag, err := r.db.querier(ctx).Exec(ctx, query,
		doc.ID, doc.Title, doc.Description, doc.Status, doc.CurrentVersion,
		doc.FolderID, doc.UpdatedAt, doc.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", doc.ID)
	}
	return nil
}

// SoftDelete marks a document deleted without removing its rows
func (r *DocumentRepository) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	query := `UPDATE documents SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.querier(ctx).Exec(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("DOCUMENT_NOT_FOUND", "document %s not found", id)
	}
	return nil
}

// AddVersion appends a version row; (document_id, version_number) is unique
func (r *DocumentRepository) AddVersion(ctx context.Context, v *domain.DocumentVersion) error {
	query := `
		INSERT INTO document_versions
			(id, document_id, version_number, file_name, mime_type, file_size, storage_path, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query,
		v.ID, v.DocumentID, v.VersionNumber, v.FileName, v.MimeType,
		v.FileSize, v.StoragePath, v.UploadedBy, v.UploadedAt,
	)
	if err != nil {
		if IsUniqueViolation(err, "document_versions_document_id_version_number_key") {
			return domain.ConflictError("DUPLICATE_VERSION",
				"version %d of document %s already exists", v.VersionNumber, v.DocumentID)
		}
		return fmt.Errorf("failed to add document version: %w", err)
	}
	return nil
}

// ListVersions returns a document's versions, newest first
func (r *DocumentRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	query := `
		SELECT id, document_id, version_number, file_name, mime_type, file_size, storage_path, uploaded_by, uploaded_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.DocumentVersion
	for rows.Next() {
		var v domain.DocumentVersion
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.FileName, &v.MimeType,
			&v.FileSize, &v.StoragePath, &v.UploadedBy, &v.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// CountVersions returns the number of versions a document has
func (r *DocumentRepository) CountVersions(ctx context.Context, documentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM document_versions WHERE document_id = $1`

	var count int
	if err := r.db.querier(ctx).QueryRow(ctx, query, documentID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}
	return count, nil
}

// CreateFolder persists a folder
func (r *DocumentRepository) CreateFolder(ctx context.Context, f *domain.Folder) error {
	query := `
		INSERT INTO folders (id, name, parent_id, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.querier(ctx).Exec(ctx, query, f.ID, f.Name, f.ParentID, f.OwnerID, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// GetFolder retrieves a folder by ID
func (r *DocumentRepository) GetFolder(ctx context.Context, id uuid.UUID) (*domain.Folder, error) {
	query := `SELECT id, name, parent_id, owner_id, created_at FROM folders WHERE id = $1`

	var f domain.Folder
	err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(&f.ID, &f.Name, &f.ParentID, &f.OwnerID, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return &f, nil
}

// ListFolders returns an owner's folders
func (r *DocumentRepository) ListFolders(ctx context.Context, ownerID uuid.UUID) ([]domain.Folder, error) {
	query := `SELECT id, name, parent_id, owner_id, created_at FROM folders WHERE owner_id = $1 ORDER BY name`

	rows, err := r.db.querier(ctx).Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []domain.Folder
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.ParentID, &f.OwnerID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// CreateTag persists a tag
func (r *DocumentRepository) CreateTag(ctx context.Context, t *domain.Tag) error {
	query := `INSERT INTO tags (id, name, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.querier(ctx).Exec(ctx, query, t.ID, t.Name, t.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err, "tags_name_key") {
			return domain.ConflictError("TAG_ALREADY_EXISTS", "tag %q already exists", t.Name)
		}
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

// GetTag retrieves a tag by ID
func (r *DocumentRepository) GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	query := `SELECT id, name, created_at FROM tags WHERE id = $1`

	var t domain.Tag
	err := r.db.querier(ctx).QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &t, nil
}

// ListTags returns all tags
func (r *DocumentRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	query := `SELECT id, name, created_at FROM tags ORDER BY name`

	rows, err := r.db.querier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// AttachTag links a tag to a document; re-attaching is a no-op
func (r *DocumentRepository) AttachTag(ctx context.Context, dt *domain.DocumentTag) error {
	query := `
		INSERT INTO document_tags (document_id, tag_id, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (document_id, tag_id) DO NOTHING
	`

	_, err := r.db.querier(ctx).Exec(ctx, query, dt.DocumentID, dt.TagID, dt.AssignedAt)
	if err != nil {
		return fmt.Errorf("failed to attach tag: %w", err)
	}
	return nil
}

// DetachTag unlinks a tag from a document
func (r *DocumentRepository) DetachTag(ctx context.Context, documentID, tagID uuid.UUID) error {
	query := `DELETE FROM document_tags WHERE document_id = $1 AND tag_id = $2`

	_, err := r.db.querier(ctx).Exec(ctx, query, documentID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	return nil
}

// ListDocumentTags returns the tags attached to a document
func (r *DocumentRepository) ListDocumentTags(ctx context.Context, documentID uuid.UUID) ([]domain.Tag, error) {
	query := `
		SELECT t.id, t.name, t.created_at
		FROM tags t
		INNER JOIN document_tags dt ON t.id = dt.tag_id
		WHERE dt.document_id = $1
		ORDER BY t.name
	`

	rows, err := r.db.querier(ctx).Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list document tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}
