package model

// ThumbnailJob is the payload enqueued after an image upload commits.
// Delivery is at-least-once; processing must be idempotent.
type ThumbnailJob struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}
