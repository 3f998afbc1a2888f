package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"filevault/internal/access"
	"filevault/internal/model"
	"filevault/internal/queue"
	"filevault/internal/repository"
	"filevault/internal/storage"
)

// PageSize is the fixed number of records per listing page.
const PageSize = 20

// CreateFileInput carries the request fields for creating a folder, file, or image.
// Data is base64-encoded content; it must be empty for folders and present otherwise.
type CreateFileInput struct {
	Name     string
	Type     model.FileType
	Data     string
	ParentID string
	IsPublic bool
}

// DownloadResult is a blob stream plus the content type derived from the
// record's display name.
type DownloadResult struct {
	Content     io.ReadCloser
	ContentType string
	Size        int64
}

// FileService defines the upload/retrieval use cases. Callers pass the
// identity resolved from the session token; an empty callerID means anonymous,
// which only Download accepts.
type FileService interface {
	// Create validates input and parentage, persists the blob and then the
	// record (never the reverse), and enqueues a thumbnail job for images.
	Create(ctx context.Context, callerID string, in CreateFileInput) (*model.File, error)

	// Show returns a record the caller is allowed to see, ErrNotFound otherwise.
	Show(ctx context.Context, callerID, id string) (*model.File, error)

	// List returns one page of the caller-visible children of parentID.
	List(ctx context.Context, callerID, parentID string, page int) ([]model.File, error)

	// SetVisibility publishes or unpublishes a record owned by the caller.
	// Non-owners get ErrNotFound whether or not the record exists.
	SetVisibility(ctx context.Context, callerID, id string, public bool) (*model.File, error)

	// Download streams the blob, or the derived rendition when width > 0.
	// A rendition that has not been generated yet yields ErrNotFound.
	Download(ctx context.Context, callerID, id string, width int) (*DownloadResult, error)
}

type fileService struct {
	files repository.FileRepository
	store storage.Storage
	jobs  queue.Queue
}

// NewFileService constructs a FileService over the given stores and job queue.
func NewFileService(files repository.FileRepository, store storage.Storage, jobs queue.Queue) FileService {
	return &fileService{files: files, store: store, jobs: jobs}
}

func (s *fileService) Create(ctx context.Context, callerID string, in CreateFileInput) (*model.File, error) {
	if in.Name == "" {
		return nil, ErrMissingName
	}
	if !model.ValidType(in.Type) {
		return nil, ErrInvalidType
	}
	if in.Type != model.TypeFolder && in.Data == "" {
		return nil, ErrMissingData
	}
	if in.Type == model.TypeFolder && in.Data != "" {
		return nil, ErrFolderNoContent
	}

	parentID := in.ParentID
	if parentID == "" {
		parentID = model.RootParentID
	}
	if parentID != model.RootParentID {
		parent, err := s.files.FindByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("find parent: %w", err)
		}
		if !parent.IsFolder() {
			return nil, ErrParentNotFolder
		}
	}

	f := &model.File{
		ID:        uuid.NewString(),
		UserID:    callerID,
		Name:      in.Name,
		Type:      in.Type,
		IsPublic:  in.IsPublic,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}

	if in.Type != model.TypeFolder {
		content, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			return nil, ErrInvalidData
		}

		// Blob first, metadata second: a failed blob write must leave no
		// record pointing at missing content.
		key := filepath.ToSlash(filepath.Join("files", uuid.NewString()+filepath.Ext(in.Name)))
		_, err = s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
			Size:        int64(len(content)),
			ContentType: contentTypeFor(in.Name),
		})
		if err != nil {
			return nil, fmt.Errorf("write blob: %w", err)
		}
		f.StorageKey = key
	}

	stored, err := s.files.Create(ctx, f)
	if err != nil {
		if f.StorageKey != "" {
			// Roll the blob back so storage holds no unreferenced content.
			if delErr := s.store.Delete(ctx, f.StorageKey); delErr != nil {
				return nil, fmt.Errorf("create record failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("create record: %w", err)
	}

	if stored.Type == model.TypeImage {
		// Thumbnail generation is best-effort relative to the upload itself.
		job := model.ThumbnailJob{UserID: stored.UserID, FileID: stored.ID}
		if err := s.jobs.Enqueue(ctx, job); err != nil {
			logEvent("error", "thumbnail_enqueue_failed", map[string]any{
				"file_id": stored.ID,
				"error":   err.Error(),
			})
		}
	}

	return stored, nil
}

func (s *fileService) Show(ctx context.Context, callerID, id string) (*model.File, error) {
	f, err := s.visibleFile(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *fileService) List(ctx context.Context, callerID, parentID string, page int) ([]model.File, error) {
	if parentID == "" {
		parentID = model.RootParentID
	}
	if page < 0 {
		page = 0
	}
	items, err := s.files.ListChildren(ctx, parentID, callerID, repository.PageQuery{
		Limit:  PageSize,
		Offset: page * PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return items, nil
}

func (s *fileService) SetVisibility(ctx context.Context, callerID, id string, public bool) (*model.File, error) {
	f, err := s.findFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if access.CanMutate(callerID, f) != access.Allow {
		return nil, ErrNotFound
	}
	updated, err := s.files.SetVisibility(ctx, id, public)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("set visibility: %w", err)
	}
	return updated, nil
}

func (s *fileService) Download(ctx context.Context, callerID, id string, width int) (*DownloadResult, error) {
	f, err := s.visibleFile(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if f.IsFolder() {
		return nil, ErrFolderNoContent
	}

	key := f.StorageKey
	if width > 0 && f.Type == model.TypeImage {
		key = storage.VariantKey(key, width)
	}

	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			// Rendition not generated yet, or content missing: absent either way.
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}

	return &DownloadResult{
		Content:     rc,
		ContentType: contentTypeFor(f.Name),
		Size:        info.Size,
	}, nil
}

// visibleFile loads a record and applies the read policy for callerID.
func (s *fileService) visibleFile(ctx context.Context, callerID, id string) (*model.File, error) {
	f, err := s.findFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if access.CanRead(callerID, f) != access.Allow {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *fileService) findFile(ctx context.Context, id string) (*model.File, error) {
	f, err := s.files.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return f, nil
}

// contentTypeFor derives the response content type from a display name.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// logEvent emits one JSON log line in the same shape the rest of the service uses.
func logEvent(level, msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
