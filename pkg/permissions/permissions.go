// Package permissions derives what a profile may do from a snapshot.
//
// Every function is pure: no I/O and no mutation. A nil profile is denied
// everything.
package permissions

import "ramo-hub-backend/pkg/models"

// ProjectPermissions are the capabilities of a profile on a project.
// Both flags follow the same rule today but are kept apart so either can
// change on its own.
type ProjectPermissions struct {
	CanEdit       bool `json:"canEdit"`
	CanCreateTask bool `json:"canCreateTask"`
}

// TaskPermissions are the capabilities of a profile on a task
type TaskPermissions struct {
	CanEdit bool `json:"canEdit"`
}

// elevation is one rule of IsElevatedUser
type elevation struct {
	name  string
	check func(p *models.Profile, project *models.Project) bool
}

// elevationRules are evaluated in order; the first match wins
var elevationRules = []elevation{
	{"global-admin", func(p *models.Profile, _ *models.Project) bool {
		return IsGlobalAdmin(p)
	}},
	{"chapter-admin", func(p *models.Profile, _ *models.Project) bool {
		for _, r := range p.Roles {
			if r.Slug == models.SlugAdmin {
				return true
			}
		}
		return false
	}},
	{"project-chapter-lead", func(p *models.Profile, project *models.Project) bool {
		if project == nil {
			return false
		}
		for _, chapterID := range project.ChapterIDs() {
			if p.HasSlug(chapterID, models.SlugChair) || p.HasSlug(chapterID, models.SlugAdmin) {
				return true
			}
		}
		return false
	}},
}

// IsGlobalAdmin reports whether p is an admin of the global chapter
func IsGlobalAdmin(p *models.Profile) bool {
	return p.HasSlug(models.GlobalChapterID, models.SlugAdmin)
}

// ElevationReason names the first elevation rule p satisfies for project,
// or "" when p is not elevated. project may be nil.
func ElevationReason(p *models.Profile, project *models.Project) string {
	if p == nil {
		return ""
	}
	for _, rule := range elevationRules {
		if rule.check(p, project) {
			return rule.name
		}
	}
	return ""
}

// IsElevatedUser reports whether p is a global admin, an admin of any
// chapter, or a chair/admin of a chapter project belongs to
func IsElevatedUser(p *models.Profile, project *models.Project) bool {
	return ElevationReason(p, project) != ""
}

// CheckProjectPermissions grants owners and elevated users full rights
func CheckProjectPermissions(p *models.Profile, project *models.Project) ProjectPermissions {
	if p == nil || project == nil {
		return ProjectPermissions{}
	}
	allowed := project.IsOwner(p.ID) || IsElevatedUser(p, project)
	return ProjectPermissions{CanEdit: allowed, CanCreateTask: allowed}
}

// CheckTaskPermissions grants assignees, owners of project and elevated
// users the right to edit task. project may be nil for orphaned tasks.
func CheckTaskPermissions(p *models.Profile, task *models.Task, project *models.Project) TaskPermissions {
	if p == nil || task == nil {
		return TaskPermissions{}
	}
	return TaskPermissions{
		CanEdit: task.IsAssignee(p.ID) || project.IsOwner(p.ID) || IsElevatedUser(p, project),
	}
}

// CanManageChapter reports whether p may edit chapterID's goals, events and
// finances: a global admin, or an admin or chair of that chapter
func CanManageChapter(p *models.Profile, chapterID int64) bool {
	if p == nil {
		return false
	}
	return IsGlobalAdmin(p) || p.HasSlug(chapterID, models.SlugAdmin) || p.HasSlug(chapterID, models.SlugChair)
}

// CanManageFinances applies CanManageChapter to a finance entry's chapter;
// entries without a chapter belong to the global chapter
func CanManageFinances(p *models.Profile, chapterID *int64) bool {
	if chapterID == nil {
		return IsGlobalAdmin(p)
	}
	return CanManageChapter(p, *chapterID)
}

// CanViewFinances lets any member of a chapter read its finances
func CanViewFinances(p *models.Profile, chapterID *int64) bool {
	if p == nil {
		return false
	}
	if IsElevatedUser(p, nil) {
		return true
	}
	if chapterID == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.ChapterID == *chapterID && r.Slug != models.SlugUnknown {
			return true
		}
	}
	return false
}

// CanManageMembers reports whether p may rewrite a project's members: only
// elevated users and current owners
func CanManageMembers(p *models.Profile, project *models.Project) bool {
	return CheckProjectPermissions(p, project).CanEdit
}

// CanCreateProject lets admins and chairs of any chapter start a project
func CanCreateProject(p *models.Profile) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.Slug == models.SlugAdmin || r.Slug == models.SlugChair {
			return true
		}
	}
	return false
}

// CanSetProjectChapters allows project editors, and anyone who manages every
// chapter the project is being moved into
func CanSetProjectChapters(p *models.Profile, project *models.Project, chapterIDs []int64) bool {
	if CheckProjectPermissions(p, project).CanEdit {
		return true
	}
	if p == nil || len(chapterIDs) == 0 {
		return false
	}
	for _, id := range chapterIDs {
		if !CanManageChapter(p, id) {
			return false
		}
	}
	return true
}
