package model

import "time"

// FileType enumerates the kinds of entries in the tree.
type FileType string

const (
	TypeFolder FileType = "folder"
	TypeFile   FileType = "file"
	TypeImage  FileType = "image"
)

// RootParentID is the sentinel parent identifier for top-level entries.
const RootParentID = "0"

// ValidType reports whether t is one of the supported file types.
func ValidType(t FileType) bool {
	return t == TypeFolder || t == TypeFile || t == TypeImage
}

// File represents a folder, file, or image in a user's tree.
// This is a pure domain model with no database-specific dependencies or tags.
// StorageKey locates the blob in object storage and is empty for folders;
// it is internal and never serialized.
type File struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	Type       FileType  `json:"type"`
	IsPublic   bool      `json:"isPublic"`
	ParentID   string    `json:"parentId"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// IsFolder reports whether the entry is a folder and thus carries no blob.
func (f *File) IsFolder() bool {
	return f.Type == TypeFolder
}
