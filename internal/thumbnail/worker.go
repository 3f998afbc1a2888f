package thumbnail

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"filevault/internal/model"
	"filevault/internal/queue"
	"filevault/internal/repository"
	"filevault/internal/storage"
)

// Widths are the fixed rendition sizes generated for every uploaded image.
var Widths = []int{500, 250, 100}

// Worker consumes thumbnail jobs and writes derived renditions back to the
// blob store. Rendition keys are deterministic, so reprocessing a redelivered
// job overwrites rather than duplicates. One permanently failing job is logged
// and acknowledged; it never stops the loop.
type Worker struct {
	files repository.FileRepository
	store storage.Storage
	jobs  queue.Queue
}

// NewWorker constructs a Worker over the given stores and queue.
func NewWorker(files repository.FileRepository, store storage.Storage, jobs queue.Queue) *Worker {
	return &Worker{files: files, store: store, jobs: jobs}
}

// Run consumes jobs until the context is cancelled or the queue closes.
// Multiple Run loops may share the same queue.
func (w *Worker) Run(ctx context.Context) {
	for {
		d, err := w.jobs.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, queue.ErrClosed) {
				return
			}
			logEvent("error", "thumbnail_dequeue_failed", map[string]any{"error": err.Error()})
			continue
		}

		if err := w.Process(ctx, d.Job); err != nil {
			if isTransient(err) {
				// Let the queue redeliver; generation is idempotent.
				logEvent("warn", "thumbnail_job_requeued", map[string]any{
					"file_id": d.Job.FileID,
					"error":   err.Error(),
				})
				_ = d.Nack(ctx)
				continue
			}
			logEvent("error", "thumbnail_job_dropped", map[string]any{
				"file_id": d.Job.FileID,
				"error":   err.Error(),
			})
		}
		_ = d.Ack(ctx)
	}
}

// transientError marks failures the queue should redeliver.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

// Process generates every rendition for one job. It is safe to call twice
// with the same job: outputs land under the same keys with the same bytes.
// A job whose source record or blob no longer exists returns nil (dropped).
func (w *Worker) Process(ctx context.Context, job model.ThumbnailJob) error {
	f, err := w.files.FindByID(ctx, job.FileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return transientError{fmt.Errorf("find file: %w", err)}
	}
	if f.Type != model.TypeImage || f.StorageKey == "" {
		return nil
	}

	rc, _, err := w.store.Get(ctx, f.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil
		}
		return transientError{fmt.Errorf("read original: %w", err)}
	}
	original, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return transientError{fmt.Errorf("read original: %w", err)}
	}

	src, err := imaging.Decode(bytes.NewReader(original))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", job.FileID, err)
	}

	format, err := imaging.FormatFromExtension(filepath.Ext(f.Name))
	if err != nil {
		format = imaging.PNG
	}
	contentType := formatContentType(format)

	for _, width := range Widths {
		resized := imaging.Resize(src, width, 0, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format); err != nil {
			return fmt.Errorf("encode %dpx rendition: %w", width, err)
		}

		key := storage.VariantKey(f.StorageKey, width)
		_, err := w.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), storage.PutObjectOptions{
			Size:        int64(buf.Len()),
			ContentType: contentType,
		})
		if err != nil {
			return transientError{fmt.Errorf("write %dpx rendition: %w", width, err)}
		}
	}

	logEvent("info", "thumbnail_job_done", map[string]any{"file_id": job.FileID})
	return nil
}

func formatContentType(format imaging.Format) string {
	switch format {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.BMP:
		return "image/bmp"
	case imaging.TIFF:
		return "image/tiff"
	default:
		return "image/png"
	}
}

func logEvent(level, msg string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": "thumbnail",
		"msg":       msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
