// Package hydrator turns raw table rows into a cross-referenced snapshot.
//
// Build order is fixed: chapters, profiles, projects, tasks, events and
// classifieds, then goals and tools. Each step resolves ids only against
// entities built by an earlier step; ids that do not resolve are dropped.
package hydrator

import (
	"math"
	"strings"

	"ramo-hub-backend/pkg/models"
)

// Hydrate builds a snapshot from raw. It never fails; missing tables only
// leave references unresolved. Generation and FetchedAt are left for the
// caller to stamp.
func Hydrate(raw RawTables) *models.Snapshot {
	snap := &models.Snapshot{}
	if len(raw.Errors) > 0 {
		snap.FetchErrors = make(map[string]string, len(raw.Errors))
		for table, err := range raw.Errors {
			snap.FetchErrors[string(table)] = err.Error()
		}
	}

	chapters, chapterByID := buildChapters(raw.Chapters)
	profiles, profileByID := buildProfiles(raw.Profiles, raw.ProfileChapters, chapterByID)
	projects, projectByID := buildProjects(raw.Projects, raw.ProjectMembers, raw.ProjectChapters, profileByID, chapterByID)
	tasks, taskByID := buildTasks(raw.Tasks, raw.TaskAssignees, projectByID, profileByID)
	countChapterRelations(chapterByID, raw.ProfileChapters, raw.ProjectChapters, profileByID, projectByID)

	snap.Chapters = chapters
	snap.Profiles = profiles
	snap.Projects = projects
	snap.Tasks = tasks
	snap.Events = buildEvents(raw.Events, chapterByID, projectByID)
	snap.Classifieds = buildClassifieds(raw.Classifieds, taskByID, chapterByID, profileByID)
	snap.Goals = buildGoals(raw.Goals, chapterByID)
	snap.Tools = buildTools(raw.Tools)
	snap.Permissions = buildPermissions(raw.Permissions)
	snap.Index()
	return snap
}

func buildChapters(rows []models.ChapterRow) ([]*models.Chapter, map[int64]*models.Chapter) {
	out := make([]*models.Chapter, 0, len(rows))
	byID := make(map[int64]*models.Chapter, len(rows))
	for _, r := range rows {
		c := &models.Chapter{
			ID:           r.ID,
			Name:         r.Name,
			Acronym:      r.Acronym,
			Description:  r.Description,
			Color:        r.Color,
			IconName:     r.IconName,
			Icon:         IconFor(r.IconName),
			CoverImage:   r.CoverImage,
			CalendarURL:  r.CalendarURL,
			ContactEmail: r.ContactEmail,
			Keywords:     nonNil(r.Keywords),
			ContentLinks: nonNil(r.ContentLinks),
		}
		out = append(out, c)
		byID[c.ID] = c
	}
	return out, byID
}

func buildProfiles(rows []models.ProfileRow, joins []models.ProfileChapterRow, chapters map[int64]*models.Chapter) ([]*models.Profile, map[string]*models.Profile) {
	joinsByProfile := make(map[string][]models.ProfileChapterRow)
	for _, j := range joins {
		joinsByProfile[j.ProfileID] = append(joinsByProfile[j.ProfileID], j)
	}

	out := make([]*models.Profile, 0, len(rows))
	byID := make(map[string]*models.Profile, len(rows))
	for _, r := range rows {
		fullName := strings.TrimSpace(r.FullName)
		if fullName == "" {
			fullName = strings.TrimSpace(r.LegacyName)
		}
		initials := r.AvatarInitials
		if initials == "" {
			initials = models.Initials(fullName)
		}
		p := &models.Profile{
			ID:               r.ID,
			FullName:         fullName,
			Email:            r.Email,
			Role:             r.Role,
			AvatarInitials:   initials,
			PhotoURL:         r.PhotoURL,
			Bio:              r.Bio,
			BirthDate:        r.BirthDate,
			Skills:           nonNil(r.Skills),
			SocialLinks:      nonNil(r.SocialLinks),
			MembershipNumber: r.MembershipNumber,
			Phone:            r.Phone,
			Course:           r.Course,
			Chapters:         []*models.Chapter{},
			Roles:            []models.ChapterRole{},
		}
		seen := map[int64]bool{}
		for _, j := range joinsByProfile[r.ID] {
			// the raw relation is kept even when its chapter is not visible;
			// permission derivation only needs the id and slug
			p.Roles = append(p.Roles, models.ChapterRole{
				ChapterID: j.ChapterID,
				Slug:      models.ParsePermissionSlug(j.PermissionSlug),
			})
			if c, ok := chapters[j.ChapterID]; ok && !seen[c.ID] {
				seen[c.ID] = true
				p.Chapters = append(p.Chapters, c)
			}
		}
		out = append(out, p)
		byID[p.ID] = p
	}
	return out, byID
}

func buildProjects(rows []models.ProjectRow, members []models.ProjectMemberRow, chapterJoins []models.ProjectChapterRow,
	profiles map[string]*models.Profile, chapters map[int64]*models.Chapter) ([]*models.Project, map[int64]*models.Project) {

	membersByProject := make(map[int64][]models.ProjectMemberRow)
	for _, m := range members {
		membersByProject[m.ProjectID] = append(membersByProject[m.ProjectID], m)
	}
	chaptersByProject := make(map[int64][]int64)
	for _, j := range chapterJoins {
		chaptersByProject[j.ProjectID] = append(chaptersByProject[j.ProjectID], j.ChapterID)
	}

	out := make([]*models.Project, 0, len(rows))
	byID := make(map[int64]*models.Project, len(rows))
	for _, r := range rows {
		p := &models.Project{
			ID:          r.ID,
			PublicID:    r.PublicID,
			Name:        r.Name,
			Description: r.Description,
			Status:      models.ParseProjectStatus(r.Status),
			Progress:    clampPercent(r.Progress),
			StartDate:   r.StartDate,
			EndDate:     r.EndDate,
			Partnership: r.Partnership,
			Tags:        nonNil(r.Tags),
			Checkpoints: nonNil(r.Checkpoints),
			Notes:       r.Notes,
			Links:       nonNil(r.Links),
			Theme:       r.Theme,
			CoverImage:  r.CoverImage,
			Owners:      []*models.Profile{},
			Team:        []*models.Profile{},
			Chapters:    resolveChapters(chaptersByProject[r.ID], chapters),
		}

		// owners and team are deduplicated separately; a profile may be in both
		ownerSeen, teamSeen := map[string]bool{}, map[string]bool{}
		for _, m := range membersByProject[r.ID] {
			prof, ok := profiles[m.ProfileID]
			if !ok {
				continue
			}
			if m.IsOwner {
				if !ownerSeen[prof.ID] {
					ownerSeen[prof.ID] = true
					p.Owners = append(p.Owners, prof)
				}
			} else if !teamSeen[prof.ID] {
				teamSeen[prof.ID] = true
				p.Team = append(p.Team, prof)
			}
		}
		p.ResponsibleNames = ResponsibleNames(p.Owners)

		out = append(out, p)
		byID[p.ID] = p
	}
	return out, byID
}

// ResponsibleNames joins owner names with " & ". NoResponsible is only for
// projects without owners; owners with blank names are skipped.
func ResponsibleNames(owners []*models.Profile) string {
	if len(owners) == 0 {
		return models.NoResponsible
	}
	names := make([]string, 0, len(owners))
	for _, o := range owners {
		if name := strings.TrimSpace(o.FullName); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, " & ")
}

func buildTasks(rows []models.TaskRow, assignees []models.TaskAssigneeRow,
	projects map[int64]*models.Project, profiles map[string]*models.Profile) ([]*models.Task, map[int64]*models.Task) {

	// join rows arrive ordered by id, i.e. insertion order
	assigneesByTask := make(map[int64][]string)
	for _, a := range assignees {
		assigneesByTask[a.TaskID] = append(assigneesByTask[a.TaskID], a.ProfileID)
	}

	out := make([]*models.Task, 0, len(rows))
	byID := make(map[int64]*models.Task, len(rows))
	for _, r := range rows {
		resources := models.ParseResources(r.ContentURL)
		t := &models.Task{
			ID:              r.ID,
			PublicID:        r.PublicID,
			Title:           r.Title,
			Description:     r.Description,
			Status:          models.ParseTaskStatus(r.Status),
			Priority:        models.ParseTaskPriority(r.Priority),
			StartDate:       r.StartDate,
			Deadline:        r.Deadline,
			Tags:            nonNil(r.Tags),
			Resources:       resources,
			AttachmentCount: len(resources),
			Assignees:       []*models.Profile{},
		}
		if r.ProjectID != nil {
			t.Project = projects[*r.ProjectID]
		}

		ids, joined := assigneesByTask[r.ID]
		if !joined && r.AssigneeID != nil && *r.AssigneeID != "" {
			ids = []string{*r.AssigneeID}
		}
		seen := map[string]bool{}
		for _, id := range ids {
			if prof, ok := profiles[id]; ok && !seen[id] {
				seen[id] = true
				t.Assignees = append(t.Assignees, prof)
			}
		}
		if len(t.Assignees) > 0 {
			t.Responsible = t.Assignees[0].ShortName()
		}

		out = append(out, t)
		byID[t.ID] = t
	}
	return out, byID
}

// countChapterRelations derives member and project counters from the joins
// that resolved in this snapshot
func countChapterRelations(chapters map[int64]*models.Chapter, profileJoins []models.ProfileChapterRow, projectJoins []models.ProjectChapterRow,
	profiles map[string]*models.Profile, projects map[int64]*models.Project) {

	members := map[int64]map[string]bool{}
	for _, j := range profileJoins {
		if _, ok := profiles[j.ProfileID]; !ok {
			continue
		}
		if members[j.ChapterID] == nil {
			members[j.ChapterID] = map[string]bool{}
		}
		members[j.ChapterID][j.ProfileID] = true
	}
	projectSet := map[int64]map[int64]bool{}
	for _, j := range projectJoins {
		if _, ok := projects[j.ProjectID]; !ok {
			continue
		}
		if projectSet[j.ChapterID] == nil {
			projectSet[j.ChapterID] = map[int64]bool{}
		}
		projectSet[j.ChapterID][j.ProjectID] = true
	}
	for id, c := range chapters {
		c.MemberCount = len(members[id])
		c.ProjectCount = len(projectSet[id])
	}
}

func buildEvents(rows []models.EventRow, chapters map[int64]*models.Chapter, projects map[int64]*models.Project) []*models.Event {
	out := make([]*models.Event, 0, len(rows))
	for _, r := range rows {
		e := &models.Event{
			ID:              r.ID,
			Title:           r.Title,
			StartsAt:        r.StartsAt,
			EndsAt:          r.EndsAt,
			Location:        r.Location,
			Description:     r.Description,
			Category:        r.Category,
			SubCategory:     r.SubCategory,
			Type:            models.ParseEventType(r.EventType),
			Hosts:           nonNil(r.Hosts),
			IsPublic:        r.IsPublic,
			ReportedVTools:  r.ReportedVTools,
			ReportURL:       r.ReportURL,
			MemberAttendees: r.MemberAttendees,
			GuestAttendees:  r.GuestAttendees,
			Attendees:       nonNil(r.Attendees),
		}
		if r.ChapterID != nil {
			e.Chapter = chapters[*r.ChapterID]
		}
		if r.ProjectID != nil {
			e.Project = projects[*r.ProjectID]
		}
		out = append(out, e)
	}
	return out
}

func buildClassifieds(rows []models.ClassifiedRow, tasks map[int64]*models.Task,
	chapters map[int64]*models.Chapter, profiles map[string]*models.Profile) []*models.Classified {

	out := make([]*models.Classified, 0, len(rows))
	for _, r := range rows {
		c := &models.Classified{
			ID:          r.ID,
			Type:        models.ParseClassifiedType(r.Type),
			Title:       r.Title,
			Description: r.Description,
			ImageURL:    r.ImageURL,
			CreatedAt:   r.CreatedAt,
			Offers:      r.Offers,
		}
		if r.TaskID != nil {
			c.Task = tasks[*r.TaskID]
		}
		if r.ResponsibleID != nil {
			c.Responsible = profiles[*r.ResponsibleID]
		}
		ids := []int64(r.ChapterIDs)
		if len(ids) == 0 && r.ChapterID != nil {
			ids = []int64{*r.ChapterID}
		}
		c.Chapters = resolveChapters(ids, chapters)
		out = append(out, c)
	}
	return out
}

func buildGoals(rows []models.ChapterGoalRow, chapters map[int64]*models.Chapter) []*models.ChapterGoal {
	out := make([]*models.ChapterGoal, 0, len(rows))
	for _, r := range rows {
		g := &models.ChapterGoal{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Indicator:   r.Indicator,
			Current:     r.Current,
			Target:      r.Target,
			Color:       r.Color,
			Period:      models.ParseGoalPeriod(r.Period),
			Progress:    GoalProgress(r.Current, r.Target),
		}
		if r.ChapterID != nil {
			g.Chapter = chapters[*r.ChapterID]
		}
		out = append(out, g)
	}
	return out
}

// GoalProgress is current/target as a percentage in [0, 100], rounded to
// one decimal; a non-positive target yields 0
func GoalProgress(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	pct := current / target * 100
	pct = math.Max(0, math.Min(100, pct))
	return math.Round(pct*10) / 10
}

func buildTools(rows []models.ToolRow) []*models.Tool {
	out := make([]*models.Tool, 0, len(rows))
	for _, r := range rows {
		out = append(out, &models.Tool{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			URL:         r.URL,
			Icon:        IconFor(r.IconName),
			Category:    r.Category,
		})
	}
	return out
}

func buildPermissions(rows []models.PermissionRow) []models.Permission {
	out := make([]models.Permission, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Permission{
			Slug:        models.ParsePermissionSlug(r.Slug),
			Name:        r.Name,
			Description: r.Description,
		})
	}
	return out
}

// HydrateFinances resolves finance rows against snap
func HydrateFinances(rows []models.FinanceRow, snap *models.Snapshot) []*models.Finance {
	out := make([]*models.Finance, 0, len(rows))
	for _, r := range rows {
		f := &models.Finance{
			ID:            r.ID,
			Type:          models.FinanceType(r.Type),
			Amount:        r.Amount,
			Currency:      models.Currency(r.Currency),
			Description:   r.Description,
			Date:          r.Date,
			InvoiceURL:    r.InvoiceURL,
			Notes:         r.Notes,
			Reimbursement: models.ParseReimbursementStatus(r.Reimbursement),
		}
		if f.Type != models.FinanceExit {
			f.Type = models.FinanceEntry
		}
		if f.Currency != models.CurrencyUSD {
			f.Currency = models.CurrencyBRL
		}
		if r.ChapterID != nil {
			f.Chapter = snap.Chapter(*r.ChapterID)
		}
		if r.ProjectID != nil {
			f.Project = snap.Project(*r.ProjectID)
		}
		if r.CreatedBy != nil {
			f.Creator = snap.Profile(*r.CreatedBy)
		}
		out = append(out, f)
	}
	return out
}

func resolveChapters(ids []int64, chapters map[int64]*models.Chapter) []*models.Chapter {
	out := make([]*models.Chapter, 0, len(ids))
	seen := map[int64]bool{}
	for _, id := range ids {
		if c, ok := chapters[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, c)
		}
	}
	return out
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func nonNil[S ~[]E, E any](s S) []E {
	if s == nil {
		return []E{}
	}
	return []E(s)
}
