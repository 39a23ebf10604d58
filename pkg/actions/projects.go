package actions

import (
	"context"
	"fmt"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/permissions"
	"ramo-hub-backend/pkg/validation"
)

// LinkInput is a labelled URL as submitted by the console
type LinkInput struct {
	Label string `json:"label" validate:"notblank,max=120"`
	URL   string `json:"url" validate:"notblank,httpurl"`
}

// CheckpointInput is a dated project milestone
type CheckpointInput struct {
	Title string `json:"title" validate:"notblank,max=200"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
}

// NewProject is the input of CreateProject
type NewProject struct {
	Name        string            `json:"name" validate:"notblank,max=200"`
	Description string            `json:"description" validate:"max=5000"`
	Status      string            `json:"status" validate:"omitempty,oneof=Planejamento 'Em Andamento' Pausado Concluído Arquivado"`
	Progress    int               `json:"progress" validate:"min=0,max=100"`
	StartDate   string            `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string            `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Partnership bool              `json:"isPartnership"`
	Tags        []string          `json:"tags" validate:"dive,notblank"`
	Checkpoints []CheckpointInput `json:"checkpoints" validate:"dive"`
	Notes       string            `json:"notes"`
	Links       []LinkInput       `json:"links" validate:"dive"`
	Theme       string            `json:"theme" validate:"max=40"`
	CoverImage  string            `json:"coverImage" validate:"httpurl"`
}

// ProjectPatch lists the fields UpdateProject changes; nil fields are kept
type ProjectPatch struct {
	Name        *string            `json:"name" validate:"omitnil,notblank,max=200"`
	Description *string            `json:"description" validate:"omitnil,max=5000"`
	Status      *string            `json:"status" validate:"omitnil,oneof=Planejamento 'Em Andamento' Pausado Concluído Arquivado"`
	Progress    *int               `json:"progress" validate:"omitnil,min=0,max=100"`
	StartDate   *string            `json:"startDate" validate:"omitnil,omitempty,datetime=2006-01-02"`
	EndDate     *string            `json:"endDate" validate:"omitnil,omitempty,datetime=2006-01-02"`
	Partnership *bool              `json:"isPartnership"`
	Tags        *[]string          `json:"tags" validate:"omitnil,dive,notblank"`
	Checkpoints *[]CheckpointInput `json:"checkpoints" validate:"omitnil,dive"`
	Notes       *string            `json:"notes"`
	Links       *[]LinkInput       `json:"links" validate:"omitnil,dive"`
	Theme       *string            `json:"theme" validate:"omitnil,max=40"`
	CoverImage  *string            `json:"coverImage" validate:"omitnil,httpurl"`
}

// Member is one row of a project's member list
type Member struct {
	ProfileID string `json:"profileId" validate:"required"`
	IsOwner   bool   `json:"isOwner"`
}

type memberList struct {
	Members []Member `json:"members" validate:"dive"`
}

func links(in []LinkInput) []models.Link {
	out := make([]models.Link, 0, len(in))
	for _, l := range in {
		out = append(out, models.Link{Label: l.Label, URL: l.URL})
	}
	return out
}

func checkpoints(in []CheckpointInput) []models.Checkpoint {
	out := make([]models.Checkpoint, 0, len(in))
	for _, c := range in {
		out = append(out, models.Checkpoint{Title: c.Title, Date: c.Date})
	}
	return out
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// lookupProject finds a project in the published snapshot
func lookupProject(snap *models.Snapshot, id int64) (*models.Project, error) {
	project := snap.Project(id)
	if project == nil {
		return nil, fmt.Errorf("project %d: %w", id, database.ErrNotFound)
	}
	return project, nil
}

// CreateProject inserts a project without members or chapters; those are
// set with SetProjectMembers and SetProjectChapters
func (a *Actions) CreateProject(ctx context.Context, actorID string, in NewProject) (int64, error) {
	_, actor := a.actor(actorID)
	if !permissions.CanCreateProject(actor) {
		return 0, denied("Apenas administradores e coordenadores podem criar projetos.")
	}
	if err := validation.Struct(in); err != nil {
		return 0, err
	}

	status := models.ProjectPlanning
	if in.Status != "" {
		status = models.ParseProjectStatus(in.Status)
	}
	return a.insert(ctx, "createProject", database.TableProjects, database.Values{
		"public_id":      publicID("PRJ"),
		"name":           in.Name,
		"description":    in.Description,
		"status":         string(status),
		"progress":       in.Progress,
		"start_date":     parseDate(in.StartDate),
		"end_date":       parseDate(in.EndDate),
		"is_partnership": in.Partnership,
		"tags":           nonNilStrings(in.Tags),
		"checkpoints":    checkpoints(in.Checkpoints),
		"notes":          in.Notes,
		"links":          links(in.Links),
		"theme":          in.Theme,
		"cover_image":    in.CoverImage,
	})
}

// UpdateProject patches a project's own columns
func (a *Actions) UpdateProject(ctx context.Context, actorID string, projectID int64, patch ProjectPatch) error {
	snap, actor := a.actor(actorID)
	project, err := lookupProject(snap, projectID)
	if err != nil {
		return err
	}
	if !permissions.CheckProjectPermissions(actor, project).CanEdit {
		return denied("Você não tem permissão para editar este projeto.")
	}
	if err := validation.Struct(patch); err != nil {
		return err
	}

	values := database.Values{}
	if patch.Name != nil {
		values["name"] = *patch.Name
	}
	if patch.Description != nil {
		values["description"] = *patch.Description
	}
	if patch.Status != nil {
		values["status"] = string(models.ParseProjectStatus(*patch.Status))
	}
	if patch.Progress != nil {
		values["progress"] = *patch.Progress
	}
	if patch.StartDate != nil {
		values["start_date"] = parseDate(*patch.StartDate)
	}
	if patch.EndDate != nil {
		values["end_date"] = parseDate(*patch.EndDate)
	}
	if patch.Partnership != nil {
		values["is_partnership"] = *patch.Partnership
	}
	if patch.Tags != nil {
		values["tags"] = nonNilStrings(*patch.Tags)
	}
	if patch.Checkpoints != nil {
		values["checkpoints"] = checkpoints(*patch.Checkpoints)
	}
	if patch.Notes != nil {
		values["notes"] = *patch.Notes
	}
	if patch.Links != nil {
		values["links"] = links(*patch.Links)
	}
	if patch.Theme != nil {
		values["theme"] = *patch.Theme
	}
	if patch.CoverImage != nil {
		values["cover_image"] = *patch.CoverImage
	}
	if len(values) == 0 {
		return validation.NewError("patch", "nothing to update")
	}

	return a.write(ctx, "updateProject", func(ctx context.Context) error {
		return a.store.Update(ctx, database.TableProjects, projectID, values)
	})
}

// SetProjectMembers replaces the owners and team of a project in one
// transactional rewrite of project_members
func (a *Actions) SetProjectMembers(ctx context.Context, actorID string, projectID int64, members []Member) error {
	snap, actor := a.actor(actorID)
	project, err := lookupProject(snap, projectID)
	if err != nil {
		return err
	}
	if !permissions.CanManageMembers(actor, project) {
		return denied("Você não tem permissão para alterar os membros deste projeto.")
	}
	if err := validation.Struct(memberList{members}); err != nil {
		return err
	}

	type key struct {
		id    string
		owner bool
	}
	seen := make(map[key]bool, len(members))
	rows := make([]database.Values, 0, len(members))
	for i, m := range members {
		if snap.Profile(m.ProfileID) == nil {
			return validation.NewError(fmt.Sprintf("members[%d].profileId", i), "unknown profile")
		}
		k := key{m.ProfileID, m.IsOwner}
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, database.Values{
			"project_id": projectID,
			"profile_id": m.ProfileID,
			"is_owner":   m.IsOwner,
		})
	}

	return a.write(ctx, "setProjectMembers", func(ctx context.Context) error {
		return a.store.ReplaceRelations(ctx, database.TableProjectMembers, database.Eq("project_id", projectID), rows)
	})
}

// SetProjectChapters replaces the chapters a project belongs to
func (a *Actions) SetProjectChapters(ctx context.Context, actorID string, projectID int64, chapterIDs []int64) error {
	snap, actor := a.actor(actorID)
	project, err := lookupProject(snap, projectID)
	if err != nil {
		return err
	}
	if !permissions.CanSetProjectChapters(actor, project, chapterIDs) {
		return denied("Você não tem permissão para vincular este projeto a esses capítulos.")
	}

	seen := make(map[int64]bool, len(chapterIDs))
	rows := make([]database.Values, 0, len(chapterIDs))
	for i, id := range chapterIDs {
		if snap.Chapter(id) == nil {
			return validation.NewError(fmt.Sprintf("chapterIds[%d]", i), "unknown chapter")
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, database.Values{"project_id": projectID, "chapter_id": id})
	}

	return a.write(ctx, "setProjectChapters", func(ctx context.Context) error {
		return a.store.ReplaceRelations(ctx, database.TableProjectChapters, database.Eq("project_id", projectID), rows)
	})
}

// RemoveProjectLink drops the link at index. The published snapshot only
// changes after the store confirms the write.
func (a *Actions) RemoveProjectLink(ctx context.Context, actorID string, projectID int64, index int) error {
	snap, actor := a.actor(actorID)
	project, err := lookupProject(snap, projectID)
	if err != nil {
		return err
	}
	if !permissions.CheckProjectPermissions(actor, project).CanEdit {
		return denied("Você não tem permissão para editar os links deste projeto.")
	}
	if index < 0 || index >= len(project.Links) {
		return validation.NewError("index", fmt.Sprintf("no link at position %d", index))
	}

	remaining := make([]models.Link, 0, len(project.Links)-1)
	remaining = append(remaining, project.Links[:index]...)
	remaining = append(remaining, project.Links[index+1:]...)

	return a.write(ctx, "removeProjectLink", func(ctx context.Context) error {
		return a.store.Update(ctx, database.TableProjects, projectID, database.Values{"links": remaining})
	})
}
