package models

// TaskStatus is the lifecycle of a task
type TaskStatus string

const (
	TaskTodo     TaskStatus = "todo"
	TaskDoing    TaskStatus = "doing"
	TaskReview   TaskStatus = "review"
	TaskDone     TaskStatus = "done"
	TaskArchived TaskStatus = "archived"
)

// ParseTaskStatus falls back to TaskTodo for unknown values
func ParseTaskStatus(s string) TaskStatus {
	switch st := TaskStatus(s); st {
	case TaskTodo, TaskDoing, TaskReview, TaskDone, TaskArchived:
		return st
	default:
		return TaskTodo
	}
}

// TaskPriority orders tasks on the board
type TaskPriority string

const (
	PriorityLow    TaskPriority = "baixa"
	PriorityMedium TaskPriority = "média"
	PriorityHigh   TaskPriority = "alta"
	PriorityUrgent TaskPriority = "urgente"
)

// ParseTaskPriority falls back to PriorityMedium for unknown values
func ParseTaskPriority(s string) TaskPriority {
	switch p := TaskPriority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p
	default:
		return PriorityMedium
	}
}

// TaskRow is a row of the tasks table. ContentURL holds the resource list in
// any of its historical shapes; AssigneeID is the single-assignee column the
// task_assignees join table replaced.
type TaskRow struct {
	ID          int64            `json:"id" db:"id"`
	PublicID    string           `json:"public_id" db:"public_id"`
	Title       string           `json:"title" db:"title"`
	Description string           `json:"description" db:"description"`
	Status      string           `json:"status" db:"status"`
	Priority    string           `json:"priority" db:"priority"`
	StartDate   NullTime         `json:"start_date" db:"start_date"`
	Deadline    NullTime         `json:"deadline" db:"deadline"`
	Tags        JSONList[string] `json:"tags" db:"tags"`
	ContentURL  RawValue         `json:"content_url" db:"content_url"`
	ProjectID   *int64           `json:"project_id" db:"project_id"`
	AssigneeID  *string          `json:"assignee_id" db:"assignee_id"`
}

// TaskAssigneeRow is a row of the task_assignees join table
type TaskAssigneeRow struct {
	ID        int64  `json:"id" db:"id"`
	TaskID    int64  `json:"task_id" db:"task_id"`
	ProfileID string `json:"profile_id" db:"profile_id"`
}

// Task is a hydrated task
type Task struct {
	ID              int64        `json:"id"`
	PublicID        string       `json:"publicId"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Status          TaskStatus   `json:"status"`
	Priority        TaskPriority `json:"priority"`
	StartDate       NullTime     `json:"startDate"`
	Deadline        NullTime     `json:"deadline"`
	Tags            []string     `json:"tags"`
	Resources       []Resource   `json:"resources"`
	AttachmentCount int          `json:"attachmentCount"`
	Project         *Project     `json:"project"`
	Assignees       []*Profile   `json:"assignees"`
	// Responsible is the first assignee's short name
	Responsible string `json:"responsible"`
}

// IsAssignee reports whether profileID is assigned to the task
func (t *Task) IsAssignee(profileID string) bool {
	if t == nil || profileID == "" {
		return false
	}
	for _, a := range t.Assignees {
		if a.ID == profileID {
			return true
		}
	}
	return false
}
