package models

import "time"

// ClassifiedType is the kind of classified post
type ClassifiedType string

const (
	ClassifiedHelp ClassifiedType = "help"
	ClassifiedIdea ClassifiedType = "idea"
)

// ParseClassifiedType falls back to ClassifiedHelp for unknown values
func ParseClassifiedType(s string) ClassifiedType {
	if ClassifiedType(s) == ClassifiedIdea {
		return ClassifiedIdea
	}
	return ClassifiedHelp
}

// ClassifiedRow is a row of the classifieds table. ChapterID is the legacy
// single-chapter column, read only when ChapterIDs is empty.
type ClassifiedRow struct {
	ID            int64           `json:"id" db:"id"`
	Type          string          `json:"type" db:"type"`
	Title         string          `json:"title" db:"title"`
	Description   string          `json:"description" db:"description"`
	ImageURL      string          `json:"image_url" db:"image_url"`
	CreatedAt     NullTime        `json:"created_at" db:"created_at"`
	TaskID        *int64          `json:"task_id" db:"task_id"`
	ChapterIDs    JSONList[int64] `json:"chapter_ids" db:"chapter_ids"`
	ChapterID     *int64          `json:"chapter_id" db:"chapter_id"`
	ResponsibleID *string         `json:"responsible_id" db:"responsible_id"`
	Offers        string          `json:"offers" db:"offers"`
}

// Classified is a hydrated classified post
type Classified struct {
	ID          int64          `json:"id"`
	Type        ClassifiedType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	CreatedAt   NullTime       `json:"createdAt"`
	Task        *Task          `json:"task"`
	Chapters    []*Chapter     `json:"chapters"`
	Responsible *Profile       `json:"responsible"`
	Offers      string         `json:"offers"`
}

// FormatOffer is the line appended to a classified's offers log
func FormatOffer(senderName, message string, at time.Time) string {
	return "[" + at.UTC().Format("02/01/2006 15:04") + "] " + senderName + ": " + message + "\n"
}
