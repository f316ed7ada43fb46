package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the lifecycle state of a document
type DocumentStatus string

const (
	DocumentStatusDraft           DocumentStatus = "draft"
	DocumentStatusPendingApproval DocumentStatus = "pending_approval"
	DocumentStatusApproved        DocumentStatus = "approved"
	DocumentStatusRejected        DocumentStatus = "rejected"
)

// Document represents a managed document with versioned files
type Document struct {
	ID             uuid.UUID      `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Status         DocumentStatus `json:"status"`
	CurrentVersion int            `json:"current_version"`
	OwnerID        uuid.UUID      `json:"owner_id"`
	FolderID       *uuid.UUID     `json:"folder_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	UpdatedBy      uuid.UUID      `json:"updated_by"`
	Versions       []DocumentVersion `json:"versions,omitempty"`
	Tags           []Tag             `json:"tags,omitempty"`
}

// DocumentVersion represents one uploaded file revision of a document
type DocumentVersion struct {
	ID            uuid.UUID `json:"id"`
	DocumentID    uuid.UUID `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	FileName      string    `json:"file_name"`
	MimeType      string    `json:"mime_type"`
	FileSize      int64     `json:"file_size"`
	StoragePath   string    `json:"-"`
	UploadedBy    uuid.UUID `json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Tag is a label attachable to documents
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentTag links a document to a tag
type DocumentTag struct {
	DocumentID uuid.UUID `json:"document_id"`
	TagID      uuid.UUID `json:"tag_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// Folder groups documents
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	CreatedAt time.Time  `json:"created_at"`
}

// DocumentCreate represents document creation data
type DocumentCreate struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	FolderID    *uuid.UUID `json:"folder_id,omitempty"`
}

// FolderCreate represents folder creation data
type FolderCreate struct {
	Name     string     `json:"name" validate:"required,max=255"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// TagCreate represents tag creation data
type TagCreate struct {
	Name string `json:"name" validate:"required,max=100"`
}

// EnsureCanBeModifiedBy checks that the document accepts mutations from the
// given user. Only draft and rejected documents are editable, and only by the
// owner or an admin.
func (d *Document) EnsureCanBeModifiedBy(userID uuid.UUID, roles []string) error {
	if d.Status != DocumentStatusDraft && d.Status != DocumentStatusRejected {
		return InvalidStateError("INVALID_DOCUMENT_STATE",
			"document %s is %s and cannot be modified", d.ID, d.Status)
	}
	if d.OwnerID != userID && !HasRole(roles, RoleAdmin) {
		return ForbiddenError("UNAUTHORIZED_DOCUMENT_ACCESS",
			"user %s may not modify document %s", userID, d.ID)
	}
	return nil
}

// NextVersionNumber returns the version number the next upload must take
func (d *Document) NextVersionNumber() int {
	return d.CurrentVersion + 1
}

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
	"text/plain": {},
	"text/csv":   {},
	"image/png":  {},
	"image/jpeg": {},
}

// ValidateFileName rejects empty names and names carrying path components
func ValidateFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationError("INVALID_FILE_NAME", "file name is empty")
	}
	if len(name) > 255 {
		return "", ValidationError("INVALID_FILE_NAME", "file name exceeds 255 characters")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", ValidationError("INVALID_FILE_NAME", "file name %q contains path components", name)
	}
	return name, nil
}

// ValidateMimeType checks the mime type against the allow-list
func ValidateMimeType(mimeType string) (string, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if _, ok := allowedMimeTypes[mt]; !ok {
		return "", ValidationError("INVALID_MIME_TYPE", "mime type %q is not allowed", mimeType)
	}
	return mt, nil
}
