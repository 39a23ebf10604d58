package models

// GlobalChapterID is the chapter whose admins administer every chapter
const GlobalChapterID int64 = 1

// Link is a labelled URL attached to chapters and projects
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ChapterRow is a row of the chapters table
type ChapterRow struct {
	ID           int64            `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Acronym      string           `json:"acronym" db:"acronym"`
	Description  string           `json:"description" db:"description"`
	Color        string           `json:"color" db:"color"`
	IconName     string           `json:"icon_name" db:"icon_name"`
	CoverImage   string           `json:"cover_image" db:"cover_image"`
	CalendarURL  string           `json:"calendar_url" db:"calendar_url"`
	ContactEmail string           `json:"contact_email" db:"contact_email"`
	Keywords     JSONList[string] `json:"keywords" db:"keywords"`
	ContentLinks JSONList[Link]   `json:"content_links" db:"content_links"`
}

// Icon is the icon handle the console renders for a chapter or tool
type Icon string

// Chapter is a hydrated chapter
type Chapter struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Acronym      string   `json:"acronym"`
	Description  string   `json:"description"`
	Color        string   `json:"color"`
	IconName     string   `json:"iconName"`
	Icon         Icon     `json:"icon"`
	CoverImage   string   `json:"coverImage,omitempty"`
	CalendarURL  string   `json:"calendarUrl,omitempty"`
	ContactEmail string   `json:"contactEmail,omitempty"`
	Keywords     []string `json:"keywords"`
	ContentLinks []Link   `json:"contentLinks"`
	MemberCount  int      `json:"memberCount"`
	ProjectCount int      `json:"projectCount"`
}

// ChapterGoalRow is a row of the chapter_goals table
type ChapterGoalRow struct {
	ID          int64   `json:"id" db:"id"`
	ChapterID   *int64  `json:"chapter_id" db:"chapter_id"`
	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	Indicator   string  `json:"indicator" db:"indicator"`
	Current     float64 `json:"current_value" db:"current_value"`
	Target      float64 `json:"target_value" db:"target_value"`
	Color       string  `json:"color" db:"color"`
	Period      string  `json:"period" db:"period"`
}

// GoalPeriod is how often a chapter goal is measured
type GoalPeriod string

const (
	PeriodMonthly    GoalPeriod = "Mensal"
	PeriodQuarterly  GoalPeriod = "Trimestral"
	PeriodSemiannual GoalPeriod = "Semestral"
	PeriodAnnual     GoalPeriod = "Anual"
)

// ParseGoalPeriod falls back to PeriodAnnual for unknown values
func ParseGoalPeriod(s string) GoalPeriod {
	switch p := GoalPeriod(s); p {
	case PeriodMonthly, PeriodQuarterly, PeriodSemiannual, PeriodAnnual:
		return p
	default:
		return PeriodAnnual
	}
}

// ChapterGoal is a hydrated goal
type ChapterGoal struct {
	ID          int64      `json:"id"`
	Chapter     *Chapter   `json:"chapter"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Indicator   string     `json:"indicator"`
	Current     float64    `json:"current"`
	Target      float64    `json:"target"`
	Color       string     `json:"color"`
	Period      GoalPeriod `json:"period"`
	Progress    float64    `json:"progress"`
}

// ToolRow is a row of the tools table
type ToolRow struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
	URL         string `json:"url" db:"url"`
	IconName    string `json:"icon_name" db:"icon_name"`
	Category    string `json:"category" db:"category"`
}

// Tool is a hydrated tool link
type Tool struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Icon        Icon   `json:"icon"`
	Category    string `json:"category"`
}
