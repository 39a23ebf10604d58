package hydrator

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/models"
)

// fakeStore serves canned rows per table through a JSON round trip, the
// same decoding path the REST backend uses
type fakeStore struct {
	mu      sync.Mutex
	rows    map[database.Table]interface{}
	fail    map[database.Table]error
	queries map[database.Table]database.Query
}

func (f *fakeStore) Select(_ context.Context, table database.Table, q database.Query, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queries == nil {
		f.queries = map[database.Table]database.Query{}
	}
	f.queries[table] = q
	if err := f.fail[table]; err != nil {
		return err
	}
	data, err := json.Marshal(f.rows[table])
	if err != nil {
		return err
	}
	if string(data) == "null" {
		data = []byte("[]")
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeStore) Insert(context.Context, database.Table, database.Values) (database.Values, error) {
	return nil, errors.New("read only")
}
func (f *fakeStore) Update(context.Context, database.Table, interface{}, database.Values) error {
	return errors.New("read only")
}
func (f *fakeStore) Delete(context.Context, database.Table, ...database.Filter) error {
	return errors.New("read only")
}
func (f *fakeStore) ReplaceRelations(context.Context, database.Table, database.Filter, []database.Values) error {
	return errors.New("read only")
}
func (f *fakeStore) AppendClassifiedOffer(context.Context, int64, string) error {
	return errors.New("read only")
}
func (f *fakeStore) HealthCheck(context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func TestFetcher_FetchAll(t *testing.T) {
	store := &fakeStore{
		rows: map[database.Table]interface{}{
			database.TableProfiles: []map[string]interface{}{{"id": "p1", "full_name": "Pat"}},
			database.TableTasks: []map[string]interface{}{
				{"id": 1, "title": "wire", "content_url": []string{"https://a"}, "project_id": 3},
			},
			database.TableTaskAssignees: []map[string]interface{}{{"id": 1, "task_id": 1, "profile_id": "p1"}},
		},
		fail: map[database.Table]error{
			database.TableChapters: errors.New("connection reset"),
		},
	}

	raw := NewFetcher(store, nil, nil).FetchAll(context.Background())

	assert.Empty(t, raw.Chapters)
	require.Contains(t, raw.Errors, database.TableChapters)
	assert.Len(t, raw.Errors, 1)
	require.Len(t, raw.Profiles, 1)
	require.Len(t, raw.Tasks, 1)
	assert.Equal(t, int64(3), *raw.Tasks[0].ProjectID)

	// every table was read exactly once, join tables in insertion order
	assert.Len(t, store.queries, 13)
	assert.Equal(t, []database.Order{{Column: "id", Ascending: true}}, store.queries[database.TableTaskAssignees].Order)

	snap := Hydrate(raw)
	task := snap.Task(1)
	assert.Nil(t, task.Project)
	assert.Equal(t, "Pat", task.Responsible)
	assert.Equal(t, []models.Resource{models.URLResource("https://a")}, task.Resources)
	assert.Contains(t, snap.FetchErrors, "chapters")
}

func TestFetcher_FetchFinancesFilters(t *testing.T) {
	store := &fakeStore{rows: map[database.Table]interface{}{
		database.TableFinances: []map[string]interface{}{{"id": 1, "type": "exit", "amount": 12.5}},
	}}

	rows, err := NewFetcher(store, nil, nil).FetchFinances(context.Background(), i64(2), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 12.5, rows[0].Amount)
	assert.Equal(t, []database.Filter{database.Eq("chapter_id", int64(2))}, store.queries[database.TableFinances].Filters)
}

func TestFetcher_FetchFinancesError(t *testing.T) {
	store := &fakeStore{fail: map[database.Table]error{database.TableFinances: database.ErrNotFound}}
	_, err := NewFetcher(store, nil, nil).FetchFinances(context.Background(), nil, nil)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestFetcher_FetchAllReadsDatedRowsFromSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewSQLDatabase(database.DriverSQLite, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	deadline := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	startAt := time.Date(2024, 6, 10, 19, 30, 0, 0, time.FixedZone("BRT", -3*60*60))
	postedAt := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	insert := func(table database.Table, values database.Values) {
		t.Helper()
		_, err := db.Insert(ctx, table, values)
		require.NoError(t, err)
	}
	insert(database.TableProjects, database.Values{
		"name":       "Robô",
		"start_date": models.NewNullTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		"end_date":   models.NewNullTime(time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)),
	})
	insert(database.TableTasks, database.Values{"title": "sem prazo"})
	insert(database.TableTasks, database.Values{"title": "com prazo", "deadline": models.NewNullTime(deadline)})
	insert(database.TableEvents, database.Values{"title": "Workshop", "start_at": models.NewNullTime(startAt)})
	insert(database.TableClassifieds, database.Values{"title": "Ajuda", "created_at": postedAt})

	raw := NewFetcher(db, nil, nil).FetchAll(ctx)
	require.Empty(t, raw.Errors)

	snap := Hydrate(raw)
	require.Len(t, snap.Projects, 1)
	assert.True(t, snap.Projects[0].StartDate.Valid)
	require.Len(t, snap.Tasks, 2)
	assert.False(t, snap.Tasks[0].Deadline.Valid)
	assert.True(t, deadline.Equal(snap.Tasks[1].Deadline.Time), "got %v", snap.Tasks[1].Deadline.Time)
	require.Len(t, snap.Events, 1)
	assert.True(t, startAt.Equal(snap.Events[0].StartsAt.Time), "got %v", snap.Events[0].StartsAt.Time)
	require.Len(t, snap.Classifieds, 1)
	assert.True(t, postedAt.Equal(snap.Classifieds[0].CreatedAt.Time), "got %v", snap.Classifieds[0].CreatedAt.Time)
}
