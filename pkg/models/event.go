package models

// EventType is how an event happens
type EventType string

const (
	EventVirtual  EventType = "Virtual"
	EventInPerson EventType = "InPerson"
)

// ParseEventType falls back to EventInPerson for unknown values
func ParseEventType(s string) EventType {
	if EventType(s) == EventVirtual {
		return EventVirtual
	}
	return EventInPerson
}

// Attendee types
const (
	AttendeeMember = "member"
	AttendeeGuest  = "guest"
)

// Attendee is one person recorded as present at an event
type Attendee struct {
	ProfileID string `json:"profile_id,omitempty"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

// EventRow is a row of the events table
type EventRow struct {
	ID              int64              `json:"id" db:"id"`
	Title           string             `json:"title" db:"title"`
	StartsAt        NullTime           `json:"start_at" db:"start_at"`
	EndsAt          NullTime           `json:"end_at" db:"end_at"`
	Location        string             `json:"location" db:"location"`
	Description     string             `json:"description" db:"description"`
	Category        string             `json:"category" db:"category"`
	SubCategory     string             `json:"sub_category" db:"sub_category"`
	EventType       string             `json:"event_type" db:"event_type"`
	Hosts           JSONList[string]   `json:"hosts" db:"hosts"`
	IsPublic        bool               `json:"is_public" db:"is_public"`
	ReportedVTools  bool               `json:"reported_vtools" db:"reported_vtools"`
	ReportURL       string             `json:"report_url" db:"report_url"`
	MemberAttendees int                `json:"member_attendees" db:"member_attendees"`
	GuestAttendees  int                `json:"guest_attendees" db:"guest_attendees"`
	Attendees       JSONList[Attendee] `json:"attendees" db:"attendees"`
	ChapterID       *int64             `json:"chapter_id" db:"chapter_id"`
	ProjectID       *int64             `json:"project_id" db:"project_id"`
}

// Event is a hydrated event
type Event struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	StartsAt        NullTime   `json:"startAt"`
	EndsAt          NullTime   `json:"endAt"`
	Location        string     `json:"location"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	SubCategory     string     `json:"subCategory"`
	Type            EventType  `json:"eventType"`
	Hosts           []string   `json:"hosts"`
	IsPublic        bool       `json:"isPublic"`
	ReportedVTools  bool       `json:"reportedVTools"`
	ReportURL       string     `json:"reportUrl,omitempty"`
	MemberAttendees int        `json:"memberAttendees"`
	GuestAttendees  int        `json:"guestAttendees"`
	Attendees       []Attendee `json:"attendees"`
	Chapter         *Chapter   `json:"chapter"`
	Project         *Project   `json:"project"`
}
