package actions

import (
	"context"
	"time"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/permissions"
	"ramo-hub-backend/pkg/validation"
)

// AttendeeInput is one person present at an event
type AttendeeInput struct {
	ProfileID string `json:"profileId"`
	Name      string `json:"name" validate:"notblank"`
	Type      string `json:"type" validate:"required,oneof=member guest"`
}

// NewEvent is the input of CreateEvent
type NewEvent struct {
	Title           string          `json:"title" validate:"notblank,max=200"`
	StartAt         string          `json:"startAt" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndAt           string          `json:"endAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Location        string          `json:"location" validate:"max=300"`
	Description     string          `json:"description" validate:"max=5000"`
	Category        string          `json:"category" validate:"max=100"`
	SubCategory     string          `json:"subCategory" validate:"max=100"`
	Type            string          `json:"eventType" validate:"omitempty,oneof=Virtual InPerson"`
	Hosts           []string        `json:"hosts" validate:"dive,notblank"`
	IsPublic        bool            `json:"isPublic"`
	ReportedVTools  bool            `json:"reportedVTools"`
	ReportURL       string          `json:"reportUrl" validate:"httpurl"`
	MemberAttendees int             `json:"memberAttendees" validate:"min=0"`
	GuestAttendees  int             `json:"guestAttendees" validate:"min=0"`
	Attendees       []AttendeeInput `json:"attendees" validate:"dive"`
	ChapterID       *int64          `json:"chapterId"`
	ProjectID       *int64          `json:"projectId"`
}

// NewGoal is the input of CreateGoal
type NewGoal struct {
	ChapterID   int64   `json:"chapterId" validate:"required"`
	Title       string  `json:"title" validate:"notblank,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Indicator   string  `json:"indicator" validate:"notblank,max=100"`
	Current     float64 `json:"current" validate:"min=0"`
	Target      float64 `json:"target" validate:"gt=0"`
	Color       string  `json:"color" validate:"max=40"`
	Period      string  `json:"period" validate:"omitempty,oneof=Mensal Trimestral Semestral Anual"`
}

// canManageEvent: chapter events need a chapter manager, project events a
// project editor, and events tied to neither a global admin
func canManageEvent(snap *models.Snapshot, actor *models.Profile, in NewEvent) bool {
	switch {
	case in.ChapterID != nil:
		return permissions.CanManageChapter(actor, *in.ChapterID)
	case in.ProjectID != nil:
		return permissions.CheckProjectPermissions(actor, snap.Project(*in.ProjectID)).CanEdit
	default:
		return permissions.IsGlobalAdmin(actor)
	}
}

// CreateEvent records an event of a chapter or project
func (a *Actions) CreateEvent(ctx context.Context, actorID string, in NewEvent) (int64, error) {
	snap, actor := a.actor(actorID)
	if !canManageEvent(snap, actor, in) {
		return 0, denied("Você não tem permissão para criar eventos aqui.")
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	startAt, _ := time.Parse(time.RFC3339, in.StartAt)
	var endAt models.NullTime
	if in.EndAt != "" {
		t, _ := time.Parse(time.RFC3339, in.EndAt)
		if t.Before(startAt) {
			return 0, validation.NewError("endAt", "must not be before startAt")
		}
		endAt = models.NewNullTime(t)
	}

	attendees := make([]models.Attendee, 0, len(in.Attendees))
	for _, at := range in.Attendees {
		attendees = append(attendees, models.Attendee{ProfileID: at.ProfileID, Name: at.Name, Type: at.Type})
	}
	eventType := models.EventInPerson
	if in.Type != "" {
		eventType = models.ParseEventType(in.Type)
	}
	values := database.Values{
		"title":            in.Title,
		"start_at":         models.NewNullTime(startAt),
		"end_at":           endAt,
		"location":         in.Location,
		"description":      in.Description,
		"category":         in.Category,
		"sub_category":     in.SubCategory,
		"event_type":       string(eventType),
		"hosts":            nonNilStrings(in.Hosts),
		"is_public":        in.IsPublic,
		"reported_vtools":  in.ReportedVTools,
		"report_url":       in.ReportURL,
		"member_attendees": in.MemberAttendees,
		"guest_attendees":  in.GuestAttendees,
		"attendees":        attendees,
	}
	if in.ChapterID != nil {
		values["chapter_id"] = *in.ChapterID
	}
	if in.ProjectID != nil {
		values["project_id"] = *in.ProjectID
	}
	return a.insert(ctx, "createEvent", database.TableEvents, values)
}

// CreateGoal adds a goal to a chapter
func (a *Actions) CreateGoal(ctx context.Context, actorID string, in NewGoal) (int64, error) {
	snap, actor := a.actor(actorID)
	if !permissions.CanManageChapter(actor, in.ChapterID) {
		return 0, denied("Você não tem permissão para definir metas deste capítulo.")
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}
	if snap.Chapter(in.ChapterID) == nil {
		return 0, validation.NewError("chapterId", "unknown chapter")
	}
	return a.insert(ctx, "createGoal", database.TableChapterGoals, database.Values{
		"chapter_id":    in.ChapterID,
		"title":         in.Title,
		"description":   in.Description,
		"indicator":     in.Indicator,
		"current_value": in.Current,
		"target_value":  in.Target,
		"color":         in.Color,
		"period":        string(models.ParseGoalPeriod(in.Period)),
	})
}
