package models

// ProjectStatus is the lifecycle of a project
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planejamento"
	ProjectInProgress ProjectStatus = "Em Andamento"
	ProjectPaused     ProjectStatus = "Pausado"
	ProjectDone       ProjectStatus = "Concluído"
	ProjectArchived   ProjectStatus = "Arquivado"
)

// ParseProjectStatus falls back to ProjectPlanning for unknown values
func ParseProjectStatus(s string) ProjectStatus {
	switch st := ProjectStatus(s); st {
	case ProjectPlanning, ProjectInProgress, ProjectPaused, ProjectDone, ProjectArchived:
		return st
	default:
		return ProjectPlanning
	}
}

// NoResponsible is shown when a project has no owners
const NoResponsible = "N/D"

// Checkpoint is a dated milestone of a project
type Checkpoint struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

// ProjectRow is a row of the projects table
type ProjectRow struct {
	ID          int64                `json:"id" db:"id"`
	PublicID    string               `json:"public_id" db:"public_id"`
	Name        string               `json:"name" db:"name"`
	Description string               `json:"description" db:"description"`
	Status      string               `json:"status" db:"status"`
	Progress    int                  `json:"progress" db:"progress"`
	StartDate   NullTime             `json:"start_date" db:"start_date"`
	EndDate     NullTime             `json:"end_date" db:"end_date"`
	Partnership bool                 `json:"is_partnership" db:"is_partnership"`
	Tags        JSONList[string]     `json:"tags" db:"tags"`
	Checkpoints JSONList[Checkpoint] `json:"checkpoints" db:"checkpoints"`
	Notes       string               `json:"notes" db:"notes"`
	Links       JSONList[Link]       `json:"links" db:"links"`
	Theme       string               `json:"theme" db:"theme"`
	CoverImage  string               `json:"cover_image" db:"cover_image"`
}

// ProjectMemberRow is a row of the project_members join table
type ProjectMemberRow struct {
	ID        int64  `json:"id" db:"id"`
	ProjectID int64  `json:"project_id" db:"project_id"`
	ProfileID string `json:"profile_id" db:"profile_id"`
	IsOwner   bool   `json:"is_owner" db:"is_owner"`
}

// ProjectChapterRow is a row of the project_chapters join table
type ProjectChapterRow struct {
	ID        int64 `json:"id" db:"id"`
	ProjectID int64 `json:"project_id" db:"project_id"`
	ChapterID int64 `json:"chapter_id" db:"chapter_id"`
}

// Project is a hydrated project
type Project struct {
	ID          int64         `json:"id"`
	PublicID    string        `json:"publicId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	Progress    int           `json:"progress"`
	StartDate   NullTime      `json:"startDate"`
	EndDate     NullTime      `json:"endDate"`
	Partnership bool          `json:"isPartnership"`
	Tags        []string      `json:"tags"`
	Checkpoints []Checkpoint  `json:"checkpoints"`
	Notes       string        `json:"notes"`
	Links       []Link        `json:"links"`
	Theme       string        `json:"theme"`
	CoverImage  string        `json:"coverImage,omitempty"`
	Owners      []*Profile    `json:"owners"`
	Team        []*Profile    `json:"team"`
	Chapters    []*Chapter    `json:"chapters"`
	// ResponsibleNames is derived from Owners on every hydration
	ResponsibleNames string `json:"responsibleNames"`
}

// IsOwner reports whether profileID is one of the owners
func (p *Project) IsOwner(profileID string) bool {
	if p == nil || profileID == "" {
		return false
	}
	for _, o := range p.Owners {
		if o.ID == profileID {
			return true
		}
	}
	return false
}

// ChapterIDs lists the ids of the chapters the project belongs to
func (p *Project) ChapterIDs() []int64 {
	if p == nil {
		return nil
	}
	ids := make([]int64, 0, len(p.Chapters))
	for _, c := range p.Chapters {
		ids = append(ids, c.ID)
	}
	return ids
}
