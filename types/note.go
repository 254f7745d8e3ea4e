package types

import "time"

// Note is a single record in a space. The id is assigned from the
// space-scoped counter; Fields holds one entry per schema field, with nil
// marking an empty optional field.
type Note struct {
	ID            int64                 `json:"id"`
	Author        string                `json:"author"`
	CreatedAt     time.Time             `json:"created_at"`
	EditedAt      *time.Time            `json:"edited_at,omitempty"`
	Fields        map[string]FieldValue `json:"fields"`
	CommentCount  int64                 `json:"comment_count"`
	LastCommentAt *time.Time            `json:"last_comment_at,omitempty"`
}

// Comment is a user comment on a note, id-scoped to the space.
type Comment struct {
	ID        int64     `json:"id"`
	NoteID    int64     `json:"note_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NotePage is one page of a note listing.
type NotePage struct {
	Notes       []Note `json:"notes"`
	TotalCount  int64  `json:"total_count"`
	CurrentPage int    `json:"current_page"`
	PageSize    int    `json:"page_size"`
	TotalPages  int    `json:"total_pages"`
	HasNext     bool   `json:"has_next"`
	HasPrev     bool   `json:"has_prev"`
}
