package types

import "time"

// File type categories used by the file store. Uploads are bucketed into one
// of these at creation time; extension-specific queries combine a category
// with a name filter (e.g. type "document" plus name contains ".pdf").
const (
	FileTypeDocument = "document"
	FileTypeImage    = "image"
	FileTypeVideo    = "video"
	FileTypeAudio    = "audio"
	FileTypeOther    = "other"
)

// FileRecord mirrors a file document in the external file store. The engine
// never creates these; it reads ownership and sharing fields to authorize
// access, and mutates only Name and SharedWith through the file operations.
type FileRecord struct {
	ID           string // file document id
	BucketFileID string // id of the stored object in the blob bucket
	Name         string
	Type         string
	Size         int64
	OwnerID      string
	SharedWith   []string // email addresses the file is shared with
	CreatedAt    time.Time
}

// Identity is the caller on whose behalf an operation runs. It is passed
// explicitly through every retrieval and ingestion call; there is no ambient
// per-request state.
type Identity struct {
	UserID string
	Email  string
}

// AccessibleBy reports whether the identity may read this file: the caller
// is either the owner or appears in the shared-users list.
func (f *FileRecord) AccessibleBy(id Identity) bool {
	if f.OwnerID == id.UserID {
		return true
	}
	for _, email := range f.SharedWith {
		if email == id.Email {
			return true
		}
	}
	return false
}
