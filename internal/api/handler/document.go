package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/avelhart/opsuite/internal/api/middleware"
	"github.com/avelhart/opsuite/internal/api/response"
	"github.com/avelhart/opsuite/internal/domain"
	"github.com/avelhart/opsuite/internal/service"
	"github.com/google/uuid"
)

// DocumentHandler handles document, folder and tag endpoints
type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadSize   int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *service.DocumentService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxUploadSize:   maxUploadSize,
	}
}

// Create registers a new document in draft state
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.DocumentCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	doc, err := h.documentService.Create(r.Context(), userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, doc)
}

// Get returns a document with its versions and tags
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "documentID")
	if err != nil {
		response.BadRequest(w, "invalid document ID")
		return
	}

	doc, err := h.documentService.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, doc)
}

// List returns the caller's documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	docs, err := h.documentService.ListByOwner(r.Context(), userID, limit, offset)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, docs)
}

// Delete soft deletes a document
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := urlID(r, "documentID")
	if err != nil {
		response.BadRequest(w, "invalid document ID")
		return
	}

	roles, _ := middleware.GetUserRoles(r.Context())
	if err := h.documentService.Delete(r.Context(), id, userID, roles); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}

// UploadVersion stores a new file version for a document
func (h *DocumentHandler) UploadVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	documentID, err := urlID(r, "documentID")
	if err != nil {
		response.BadRequest(w, "invalid document ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		response.BadRequest(w, "file too large or malformed multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "no file uploaded")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	roles, _ := middleware.GetUserRoles(r.Context())

	version, err := h.documentService.UploadVersion(r.Context(), documentID, userID, roles, header.Filename, mimeType, file)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, version)
}

// DownloadVersion streams a stored file version
func (h *DocumentHandler) DownloadVersion(w http.ResponseWriter, r *http.Request) {
	documentID, err := urlID(r, "documentID")
	if err != nil {
		response.BadRequest(w, "invalid document ID")
		return
	}

	versionNumber, err := strconv.Atoi(r.URL.Query().Get("version"))
	if err != nil || versionNumber < 1 {
		response.BadRequest(w, "invalid version number")
		return
	}

	version, rc, err := h.documentService.OpenVersion(r.Context(), documentID, versionNumber)
	if err != nil {
		response.FromError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", version.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+version.FileName+`"`)
	io.Copy(w, rc)
}

// CreateFolder creates a folder for the caller
func (h *DocumentHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var input domain.FolderCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	folder, err := h.documentService.CreateFolder(r.Context(), userID, input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, folder)
}

// ListFolders returns the caller's folders
func (h *DocumentHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	folders, err := h.documentService.ListFolders(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, folders)
}

// CreateTag defines a new tag
func (h *DocumentHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var input domain.TagCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, validationMessages(err))
		return
	}

	tag, err := h.documentService.CreateTag(r.Context(), input)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, tag)
}

// ListTags returns all defined tags
func (h *DocumentHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.documentService.ListTags(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, tags)
}

// AttachTag attaches a tag to a document
func (h *DocumentHandler) AttachTag(w http.ResponseWriter, r *http.Request) {
	h.tagOp(w, r, h.documentService.AttachTag)
}

// DetachTag removes a tag from a document
func (h *DocumentHandler) DetachTag(w http.ResponseWriter, r *http.Request) {
	h.tagOp(w, r, h.documentService.DetachTag)
}

type tagOpFunc func(ctx context.Context, documentID, tagID, userID uuid.UUID, roles []string) error

func (h *DocumentHandler) tagOp(w http.ResponseWriter, r *http.Request, op tagOpFunc) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	documentID, err := urlID(r, "documentID")
	if err != nil {
		response.BadRequest(w, "invalid document ID")
		return
	}

	tagID, err := urlID(r, "tagID")
	if err != nil {
		response.BadRequest(w, "invalid tag ID")
		return
	}

	roles, _ := middleware.GetUserRoles(r.Context())
	if err := op(r.Context(), documentID, tagID, userID, roles); err != nil {
		response.FromError(w, err)
		return
	}

	response.NoContent(w)
}
