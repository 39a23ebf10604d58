package hydrator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/metrics"
	"ramo-hub-backend/pkg/models"
)

// RawTables is one refresh's worth of rows, exactly as the store returned
// them. A table whose read failed is empty and has an entry in Errors.
type RawTables struct {
	Chapters        []models.ChapterRow
	Profiles        []models.ProfileRow
	ProfileChapters []models.ProfileChapterRow
	Projects        []models.ProjectRow
	ProjectMembers  []models.ProjectMemberRow
	ProjectChapters []models.ProjectChapterRow
	Tasks           []models.TaskRow
	TaskAssignees   []models.TaskAssigneeRow
	Events          []models.EventRow
	Classifieds     []models.ClassifiedRow
	Goals           []models.ChapterGoalRow
	Tools           []models.ToolRow
	Permissions     []models.PermissionRow

	Errors map[database.Table]error
}

// Fetcher issues the per-table reads of a refresh
type Fetcher struct {
	store   database.Store
	log     logger.Logger
	metrics *metrics.Recorder
}

// NewFetcher reads from store; rec may be nil
func NewFetcher(store database.Store, log logger.Logger, rec *metrics.Recorder) *Fetcher {
	if log == nil {
		log = logger.Nop{}
	}
	return &Fetcher{store: store, log: log, metrics: rec}
}

var byID = database.Query{Order: []database.Order{{Column: "id", Ascending: true}}}

// FetchAll reads every table concurrently and waits for all of them. It
// never fails: a table error is logged and leaves that table empty.
func (f *Fetcher) FetchAll(ctx context.Context) RawTables {
	raw := RawTables{Errors: map[database.Table]error{}}
	var mu sync.Mutex

	var g errgroup.Group
	read := func(table database.Table, q database.Query, dest interface{}) {
		g.Go(func() error {
			if err := f.store.Select(ctx, table, q, dest); err != nil {
				f.log.Error("Failed to fetch "+string(table), err)
				f.metrics.FetchError(string(table))
				mu.Lock()
				raw.Errors[table] = err
				mu.Unlock()
			}
			return nil
		})
	}

	// each goroutine owns its destination slice until Wait returns
	var (
		chapters        []models.ChapterRow
		profiles        []models.ProfileRow
		profileChapters []models.ProfileChapterRow
		projects        []models.ProjectRow
		projectMembers  []models.ProjectMemberRow
		projectChapters []models.ProjectChapterRow
		tasks           []models.TaskRow
		taskAssignees   []models.TaskAssigneeRow
		events          []models.EventRow
		classifieds     []models.ClassifiedRow
		goals           []models.ChapterGoalRow
		tools           []models.ToolRow
		permissions     []models.PermissionRow
	)
	read(database.TableChapters, byID, &chapters)
	read(database.TableProfiles, database.Query{Order: []database.Order{{Column: "full_name", Ascending: true}}}, &profiles)
	read(database.TableProfileChapters, byID, &profileChapters)
	read(database.TableProjects, byID, &projects)
	read(database.TableProjectMembers, byID, &projectMembers)
	read(database.TableProjectChapters, byID, &projectChapters)
	read(database.TableTasks, byID, &tasks)
	read(database.TableTaskAssignees, byID, &taskAssignees)
	read(database.TableEvents, database.Query{Order: []database.Order{{Column: "start_at", Ascending: true}}}, &events)
	read(database.TableClassifieds, database.Query{Order: []database.Order{{Column: "id", Ascending: false}}}, &classifieds)
	read(database.TableChapterGoals, byID, &goals)
	read(database.TableTools, byID, &tools)
	read(database.TablePermissions, database.Query{Order: []database.Order{{Column: "slug", Ascending: true}}}, &permissions)
	_ = g.Wait()

	// a failed read may have decoded part of a response; drop it
	keep := func(table database.Table) bool { return raw.Errors[table] == nil }
	if keep(database.TableChapters) {
		raw.Chapters = chapters
	}
	if keep(database.TableProfiles) {
		raw.Profiles = profiles
	}
	if keep(database.TableProfileChapters) {
		raw.ProfileChapters = profileChapters
	}
	if keep(database.TableProjects) {
		raw.Projects = projects
	}
	if keep(database.TableProjectMembers) {
		raw.ProjectMembers = projectMembers
	}
	if keep(database.TableProjectChapters) {
		raw.ProjectChapters = projectChapters
	}
	if keep(database.TableTasks) {
		raw.Tasks = tasks
	}
	if keep(database.TableTaskAssignees) {
		raw.TaskAssignees = taskAssignees
	}
	if keep(database.TableEvents) {
		raw.Events = events
	}
	if keep(database.TableClassifieds) {
		raw.Classifieds = classifieds
	}
	if keep(database.TableChapterGoals) {
		raw.Goals = goals
	}
	if keep(database.TableTools) {
		raw.Tools = tools
	}
	if keep(database.TablePermissions) {
		raw.Permissions = permissions
	}
	return raw
}

// FetchFinances reads the finances table on demand, optionally narrowed to
// one chapter and/or project
func (f *Fetcher) FetchFinances(ctx context.Context, chapterID, projectID *int64) ([]models.FinanceRow, error) {
	q := database.Query{Order: []database.Order{{Column: "date", Ascending: false}, {Column: "id", Ascending: false}}}
	if chapterID != nil {
		q.Filters = append(q.Filters, database.Eq("chapter_id", *chapterID))
	}
	if projectID != nil {
		q.Filters = append(q.Filters, database.Eq("project_id", *projectID))
	}
	var rows []models.FinanceRow
	if err := f.store.Select(ctx, database.TableFinances, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
