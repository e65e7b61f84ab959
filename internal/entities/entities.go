package entities

import (
	"strings"
	"time"
)

// NovelStatus describes the publication state of a novel.
type NovelStatus string

const (
	NovelStatusOngoing   NovelStatus = "Ongoing"
	NovelStatusCompleted NovelStatus = "Completed"
	NovelStatusHiatus    NovelStatus = "Hiatus"
)

// ReadingStatus is the user-facing state of a reading-list entry.
// There is no transition graph: any status may move to any other.
type ReadingStatus string

const (
	ReadingStatusWantToRead ReadingStatus = "Want to Read"
	ReadingStatusReading    ReadingStatus = "Reading"
	ReadingStatusCompleted  ReadingStatus = "Completed"
	ReadingStatusDropped    ReadingStatus = "Dropped"
	ReadingStatusOnHold     ReadingStatus = "On Hold"
)

// AllReadingStatuses is the canonical ordering used when rendering the
// reading list, regardless of which groups are non-empty.
var AllReadingStatuses = []ReadingStatus{
	ReadingStatusWantToRead,
	ReadingStatusReading,
	ReadingStatusCompleted,
	ReadingStatusDropped,
	ReadingStatusOnHold,
}

// IsValid reports whether s is one of the five canonical statuses.
func (s ReadingStatus) IsValid() bool {
	for _, known := range AllReadingStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	Entries []ReadingListEntry `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type Novel struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Title         string      `gorm:"index;size:200;not null" json:"title"`
	Author        string      `gorm:"index;size:100;not null" json:"author"`
	Synopsis      string      `gorm:"type:text" json:"synopsis,omitempty"`
	CoverImage    string      `gorm:"size:200" json:"cover_image,omitempty"`
	Status        NovelStatus `gorm:"size:20;not null" json:"status"`
	TotalChapters *int        `json:"total_chapters,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`

	// Comma-separated free-text labels, e.g. "Action, Fantasy, System".
	Tags string `gorm:"size:500" json:"tags,omitempty"`

	Entries []ReadingListEntry `gorm:"foreignKey:NovelID;constraint:OnDelete:CASCADE" json:"-"`
}

// TagList splits the denormalized Tags field on commas, trimming
// surrounding whitespace from each label. Empty labels are dropped.
func (n Novel) TagList() []string {
	if n.Tags == "" {
		return nil
	}
	parts := strings.Split(n.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if tag := strings.TrimSpace(p); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ReadingListEntry records one user's engagement with one novel.
// The (user_id, novel_id) pair is unique: a user has at most one
// entry per novel, and every add is an upsert against that key.
type ReadingListEntry struct {
	ID      uint          `gorm:"primaryKey" json:"id"`
	UserID  uint          `gorm:"uniqueIndex:idx_user_novel;not null" json:"user_id"`
	NovelID uint          `gorm:"uniqueIndex:idx_user_novel;not null" json:"novel_id"`
	Status  ReadingStatus `gorm:"size:20;not null;default:'Want to Read'" json:"status"`
	Rating  *int          `json:"rating,omitempty"` // 1-5 stars
	Review  string        `gorm:"type:text" json:"review,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User  User  `gorm:"foreignKey:UserID" json:"-"`
	Novel Novel `gorm:"foreignKey:NovelID" json:"novel,omitempty"`
}

// RatingValue returns the star rating, or 0 when none has been given.
// Templates cannot dereference pointers, so they use this instead.
func (e ReadingListEntry) RatingValue() int {
	if e.Rating == nil {
		return 0
	}
	return *e.Rating
}

func (User) TableName() string {
	return "users"
}

func (Novel) TableName() string {
	return "novels"
}

func (ReadingListEntry) TableName() string {
	return "reading_list_entries"
}
