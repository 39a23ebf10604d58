package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Table names the store exposes
type Table string

const (
	TableChapters        Table = "chapters"
	TableProfiles        Table = "profiles"
	TableProfileChapters Table = "profile_chapters"
	TableProjects        Table = "projects"
	TableProjectMembers  Table = "project_members"
	TableProjectChapters Table = "project_chapters"
	TableTasks           Table = "tasks"
	TableTaskAssignees   Table = "task_assignees"
	TableEvents          Table = "events"
	TableClassifieds     Table = "classifieds"
	TableChapterGoals    Table = "chapter_goals"
	TableTools           Table = "tools"
	TablePermissions     Table = "permissions"
	TableFinances        Table = "finances"
)

// allTables in creation order (referenced tables first)
var allTables = []Table{
	TablePermissions, TableChapters, TableProfiles, TableProfileChapters,
	TableProjects, TableProjectMembers, TableProjectChapters,
	TableTasks, TableTaskAssignees, TableEvents, TableClassifieds,
	TableChapterGoals, TableTools, TableFinances,
}

var knownTables = func() map[Table]bool {
	m := make(map[Table]bool, len(allTables))
	for _, t := range allTables {
		m[t] = true
	}
	return m
}()

// AllTables lists every table of the schema, referenced tables first
func AllTables() []Table {
	return append([]Table(nil), allTables...)
}

// relationTables may be rewritten with ReplaceRelations
var relationTables = map[Table]bool{
	TableProfileChapters: true,
	TableProjectMembers:  true,
	TableProjectChapters: true,
	TableTaskAssignees:   true,
}

var (
	ErrNotFound        = errors.New("record not found")
	ErrConflict        = errors.New("record conflicts with an existing one")
	ErrUnknownTable    = errors.New("unknown table")
	ErrInvalidColumn   = errors.New("invalid column name")
	ErrUnfilteredWrite = errors.New("refusing to delete without a filter")
)

// Filter is an equality condition on one column
type Filter struct {
	Column string
	Value  interface{}
}

// Eq builds a Filter
func Eq(column string, value interface{}) Filter {
	return Filter{Column: column, Value: value}
}

// Order is one ORDER BY term
type Order struct {
	Column    string
	Ascending bool
}

// Query narrows and orders a Select
type Query struct {
	Filters []Filter
	Order   []Order
}

// Values is a column → value payload for writes and the representation
// returned by Insert
type Values map[string]interface{}

// Int64 reads an integer column regardless of how the backend decoded it
func (v Values) Int64(key string) (int64, bool) {
	switch n := v[key].(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(string(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// Store is the remote relational store. Every method is a single round trip
// (ReplaceRelations is a single transaction).
type Store interface {
	// Select decodes all matching rows of table into dest, a pointer to a
	// slice of row structs.
	Select(ctx context.Context, table Table, q Query, dest interface{}) error
	Insert(ctx context.Context, table Table, values Values) (Values, error)
	// Update patches the row whose id column equals id.
	Update(ctx context.Context, table Table, id interface{}, patch Values) error
	// Delete removes the rows matching every filter; at least one is required.
	Delete(ctx context.Context, table Table, match ...Filter) error
	// ReplaceRelations atomically deletes the join rows matching match and
	// inserts rows in their place.
	ReplaceRelations(ctx context.Context, table Table, match Filter, rows []Values) error
	// AppendClassifiedOffer concatenates text to a classified's offers log
	// server-side.
	AppendClassifiedOffer(ctx context.Context, classifiedID int64, text string) error
	HealthCheck(ctx context.Context) error
	Close() error
}

// DatabaseConfig selects and configures a backend
type DatabaseConfig struct {
	Driver      string // postgres | pgx | sqlite; empty picks from the fields below
	PostgresDSN string
	SQLitePath  string
	SupabaseURL string
	SupabaseKey string
	Debug       bool
}

// NewDatabase picks a backend. On Vercel, Supabase REST is preferred over a
// direct Postgres connection; elsewhere a configured DSN wins.
func NewDatabase(config DatabaseConfig) (Store, error) {
	hasSupabase := config.SupabaseURL != "" && config.SupabaseKey != ""

	if config.Driver == DriverSQLite {
		fmt.Printf("🗃️  Using SQLite database at %s\n", config.SQLitePath)
		return NewSQLDatabase(DriverSQLite, config.SQLitePath)
	}

	if IsVercelEnvironment() {
		fmt.Printf("🧭 Detected Vercel production environment\n")
		if hasSupabase {
			fmt.Printf("🚀  Using Supabase REST API (Vercel optimized)\n")
			return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey), nil
		}
		if config.PostgresDSN != "" {
			fmt.Printf("🌐  Using PostgreSQL in Vercel (may have IPv6 issues)\n")
			return NewPostgresDatabase(config.Driver, config.PostgresDSN)
		}
		return nil, fmt.Errorf("no database configured for Vercel: set SUPABASE_URL+SUPABASE_SERVICE_KEY or POSTGRES_DSN")
	}

	if config.PostgresDSN != "" {
		fmt.Printf("🗄️  Using PostgreSQL database\n")
		return NewPostgresDatabase(config.Driver, config.PostgresDSN)
	}
	if hasSupabase {
		fmt.Printf("🧰  Using Supabase REST API\n")
		return NewSupabaseDatabase(config.SupabaseURL, config.SupabaseKey), nil
	}
	if config.SQLitePath != "" {
		fmt.Printf("🗃️  Using SQLite database at %s\n", config.SQLitePath)
		return NewSQLDatabase(DriverSQLite, config.SQLitePath)
	}
	return nil, fmt.Errorf("no database configured: set POSTGRES_DSN, SUPABASE_URL+SUPABASE_SERVICE_KEY or SQLITE_PATH")
}

// IsVercelEnvironment reports whether we run as a Vercel/Lambda function
func IsVercelEnvironment() bool {
	return os.Getenv("VERCEL_ENV") != "" || os.Getenv("VERCEL_URL") != "" || os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkTable(table Table) error {
	if !knownTables[table] {
		return fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	return nil
}

func checkColumn(column string) error {
	if !identifierPattern.MatchString(column) {
		return fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}
	return nil
}

func checkRelationTable(table Table) error {
	if !relationTables[table] {
		return fmt.Errorf("%w: %s is not a relation table", ErrUnknownTable, table)
	}
	return nil
}
