package types

import "time"

// AttachmentCategory classifies an attachment by its MIME type.
type AttachmentCategory string

const (
	CategoryImages    AttachmentCategory = "images"
	CategoryVideos    AttachmentCategory = "videos"
	CategoryAudio     AttachmentCategory = "audio"
	CategoryDocuments AttachmentCategory = "documents"
	CategoryOther     AttachmentCategory = "other"
)

var attachmentCategories = map[AttachmentCategory][]string{
	CategoryImages: {
		"image/jpeg", "image/png", "image/webp", "image/gif", "image/bmp", "image/tiff",
	},
	CategoryVideos: {
		"video/mp4", "video/webm", "video/avi", "video/mov", "video/mkv", "video/wmv", "video/flv",
	},
	CategoryAudio: {
		"audio/mp3", "audio/wav", "audio/ogg", "audio/m4a", "audio/aac", "audio/flac", "audio/wma",
	},
	CategoryDocuments: {
		"application/pdf", "text/plain", "text/markdown",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	},
}

// CategoryForContentType maps a MIME type to its attachment category,
// defaulting to CategoryOther for unknown types.
func CategoryForContentType(contentType string) AttachmentCategory {
	for category, contentTypes := range attachmentCategories {
		for _, ct := range contentTypes {
			if ct == contentType {
				return category
			}
		}
	}
	return CategoryOther
}

// Attachment is the metadata record of an uploaded file. Content storage
// lives outside this module; only the metadata is tracked here.
type Attachment struct {
	ID          int64     `json:"id"`
	SpaceID     string    `json:"space_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
	// NoteID is the note this attachment belongs to; nil means unassigned.
	NoteID *int64 `json:"note_id,omitempty"`
}

// Category returns the attachment's category derived from its MIME type.
func (a *Attachment) Category() AttachmentCategory {
	return CategoryForContentType(a.ContentType)
}
