package actions

import (
	"context"
	"fmt"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/permissions"
	"ramo-hub-backend/pkg/validation"
)

// ResourceInput is one attachment of a task
type ResourceInput struct {
	Type        string `json:"type" validate:"omitempty,oneof=url"`
	Value       string `json:"value" validate:"notblank,httpurl"`
	DisplayMode string `json:"displayMode" validate:"omitempty,oneof=iframe-100 iframe-50 link"`
}

// NewTask is the input of CreateTask
type NewTask struct {
	ProjectID   *int64          `json:"projectId"`
	Title       string          `json:"title" validate:"notblank,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Status      string          `json:"status" validate:"omitempty,oneof=todo doing review done archived"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=baixa média alta urgente"`
	StartDate   string          `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Deadline    string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Tags        []string        `json:"tags" validate:"dive,notblank"`
	Resources   []ResourceInput `json:"resources" validate:"dive"`
}

// TaskPatch lists the fields UpdateTask changes; nil fields are kept
type TaskPatch struct {
	Title       *string          `json:"title" validate:"omitnil,notblank,max=200"`
	Description *string          `json:"description" validate:"omitnil,max=5000"`
	Status      *string          `json:"status" validate:"omitnil,oneof=todo doing review done archived"`
	Priority    *string          `json:"priority" validate:"omitnil,oneof=baixa média alta urgente"`
	StartDate   *string          `json:"startDate" validate:"omitnil,omitempty,datetime=2006-01-02"`
	Deadline    *string          `json:"deadline" validate:"omitnil,omitempty,datetime=2006-01-02"`
	Tags        *[]string        `json:"tags" validate:"omitnil,dive,notblank"`
	Resources   *[]ResourceInput `json:"resources" validate:"omitnil,dive"`
}

func resources(in []ResourceInput) (models.RawValue, error) {
	out := make([]models.Resource, 0, len(in))
	for _, r := range in {
		out = append(out, models.Resource{Type: r.Type, Value: r.Value, DisplayMode: r.DisplayMode})
	}
	return models.EncodeResources(out)
}

func lookupTask(snap *models.Snapshot, id int64) (*models.Task, error) {
	task := snap.Task(id)
	if task == nil {
		return nil, fmt.Errorf("task %d: %w", id, database.ErrNotFound)
	}
	return task, nil
}

// canEditTask resolves the task and checks the caller may change it
func (a *Actions) canEditTask(actorID string, taskID int64) (*models.Snapshot, *models.Task, error) {
	snap, actor := a.actor(actorID)
	task, err := lookupTask(snap, taskID)
	if err != nil {
		return nil, nil, err
	}
	if !permissions.CheckTaskPermissions(actor, task, task.Project).CanEdit {
		return nil, nil, denied("Você não tem permissão para editar esta tarefa.")
	}
	return snap, task, nil
}

// CreateTask inserts a task. Assignees are set with SetTaskAssignees.
func (a *Actions) CreateTask(ctx context.Context, actorID string, in NewTask) (int64, error) {
	snap, actor := a.actor(actorID)
	var project *models.Project
	if in.ProjectID != nil {
		var err error
		if project, err = lookupProject(snap, *in.ProjectID); err != nil {
			return 0, err
		}
		if !permissions.CheckProjectPermissions(actor, project).CanCreateTask {
			return 0, denied("Você não tem permissão para criar tarefas neste projeto.")
		}
	} else if !permissions.IsElevatedUser(actor, nil) {
		return 0, denied("Apenas administradores podem criar tarefas fora de um projeto.")
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	content, err := resources(in.Resources)
	if err != nil {
		return 0, fmt.Errorf("encode resources: %w", err)
	}
	status := models.TaskTodo
	if in.Status != "" {
		status = models.ParseTaskStatus(in.Status)
	}
	priority := models.PriorityMedium
	if in.Priority != "" {
		priority = models.ParseTaskPriority(in.Priority)
	}
	values := database.Values{
		"public_id":   publicID("TSK"),
		"title":       in.Title,
		"description": in.Description,
		"status":      string(status),
		"priority":    string(priority),
		"start_date":  parseDate(in.StartDate),
		"deadline":    parseDate(in.Deadline),
		"tags":        nonNilStrings(in.Tags),
		"content_url": content,
	}
	if project != nil {
		values["project_id"] = project.ID
	}
	return a.insert(ctx, "createTask", database.TableTasks, values)
}

// UpdateTask patches a task's own columns. Resources are always written in
// the structured form.
func (a *Actions) UpdateTask(ctx context.Context, actorID string, taskID int64, patch TaskPatch) error {
	if _, _, err := a.canEditTask(actorID, taskID); err != nil {
		return err
	}
	if err := validation.Struct(patch); err != nil {
		return err
	}

	values := database.Values{}
	if patch.Title != nil {
		values["title"] = *patch.Title
	}
	if patch.Description != nil {
		values["description"] = *patch.Description
	}
	if patch.Status != nil {
		values["status"] = string(models.ParseTaskStatus(*patch.Status))
	}
	if patch.Priority != nil {
		values["priority"] = string(models.ParseTaskPriority(*patch.Priority))
	}
	if patch.StartDate != nil {
		values["start_date"] = parseDate(*patch.StartDate)
	}
	if patch.Deadline != nil {
		values["deadline"] = parseDate(*patch.Deadline)
	}
	if patch.Tags != nil {
		values["tags"] = nonNilStrings(*patch.Tags)
	}
	if patch.Resources != nil {
		content, err := resources(*patch.Resources)
		if err != nil {
			return fmt.Errorf("encode resources: %w", err)
		}
		values["content_url"] = content
	}
	if len(values) == 0 {
		return validation.NewError("patch", "nothing to update")
	}

	return a.write(ctx, "updateTask", func(ctx context.Context) error {
		return a.store.Update(ctx, database.TableTasks, taskID, values)
	})
}

// SetTaskAssignees replaces a task's assignees, keeping the given order
func (a *Actions) SetTaskAssignees(ctx context.Context, actorID string, taskID int64, profileIDs []string) error {
	snap, _, err := a.canEditTask(actorID, taskID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(profileIDs))
	rows := make([]database.Values, 0, len(profileIDs))
	for i, id := range profileIDs {
		if snap.Profile(id) == nil {
			return validation.NewError(fmt.Sprintf("profileIds[%d]", i), "unknown profile")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, database.Values{"task_id": taskID, "profile_id": id})
	}

	return a.write(ctx, "setTaskAssignees", func(ctx context.Context) error {
		return a.store.ReplaceRelations(ctx, database.TableTaskAssignees, database.Eq("task_id", taskID), rows)
	})
}

// DeleteTask removes a task; its assignee rows go with it
func (a *Actions) DeleteTask(ctx context.Context, actorID string, taskID int64) error {
	if _, _, err := a.canEditTask(actorID, taskID); err != nil {
		return err
	}
	return a.write(ctx, "deleteTask", func(ctx context.Context) error {
		return a.store.Delete(ctx, database.TableTasks, database.Eq("id", taskID))
	})
}
