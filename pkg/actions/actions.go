// Package actions are the mutations the console can trigger. Each one checks
// permissions against the published snapshot, validates its input, performs
// exactly one remote write and then refreshes the snapshot quietly. A denied
// or invalid action never reaches the store.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/hydrator"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/metrics"
	"ramo-hub-backend/pkg/models"
	"ramo-hub-backend/pkg/storage"
)

// NotificationType classifies user-facing notices
type NotificationType string

// PermissionDenied is raised instead of writing when the caller lacks rights
const PermissionDenied NotificationType = "PermissionDenied"

// Notification is a message meant for the person using the console rather
// than a failure of the system
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

func (n *Notification) Error() string { return n.Message }

func denied(message string) error {
	return &Notification{Type: PermissionDenied, Message: message}
}

// IsPermissionDenied reports whether err is a permission notification
func IsPermissionDenied(err error) bool {
	var n *Notification
	return errors.As(err, &n) && n.Type == PermissionDenied
}

// Snapshots is the part of the snapshot hub actions depend on
type Snapshots interface {
	Current() *models.Snapshot
	Refresh(ctx context.Context, quiet bool) (*models.Snapshot, error)
}

// Actions performs console mutations
type Actions struct {
	store   database.Store
	hub     Snapshots
	fetcher *hydrator.Fetcher
	blobs   storage.Store
	log     logger.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option customizes Actions
type Option func(*Actions)

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option { return func(a *Actions) { a.log = l } }

// WithMetrics records writes on rec
func WithMetrics(rec *metrics.Recorder) Option { return func(a *Actions) { a.metrics = rec } }

// WithStorage sets where invoices are uploaded
func WithStorage(s storage.Store) Option { return func(a *Actions) { a.blobs = s } }

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option { return func(a *Actions) { a.now = now } }

// New builds Actions writing to store and refreshing hub
func New(store database.Store, hub Snapshots, opts ...Option) *Actions {
	a := &Actions{
		store: store,
		hub:   hub,
		blobs: storage.Disabled{},
		log:   logger.Nop{},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.fetcher = hydrator.NewFetcher(store, a.log, a.metrics)
	return a
}

// actor resolves the caller in the published snapshot
func (a *Actions) actor(profileID string) (*models.Snapshot, *models.Profile) {
	snap := a.hub.Current()
	return snap, snap.Profile(profileID)
}

// write runs the single remote write of an action and then refreshes. A
// failed refresh does not fail the action: the write already happened.
func (a *Actions) write(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	a.metrics.ActionWrite(action, err)
	if err != nil {
		a.log.Error("Action "+action+" failed", err)
		return fmt.Errorf("%s: %w", action, err)
	}
	if _, err := a.hub.Refresh(ctx, true); err != nil {
		a.log.Warn("Refresh after "+action+" failed", err)
	}
	return nil
}

// insert is write for actions that create a row and report its id
func (a *Actions) insert(ctx context.Context, action string, table database.Table, values database.Values) (int64, error) {
	var id int64
	err := a.write(ctx, action, func(ctx context.Context) error {
		row, err := a.store.Insert(ctx, table, values)
		if err != nil {
			return err
		}
		id, _ = row.Int64("id")
		return nil
	})
	return id, err
}

// publicID builds the short id shown to users, e.g. "PRJ-1A2B3C4D"
func publicID(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:8])
}

// parseDate turns an optional "2006-01-02" input into a column value
func parseDate(s string) models.NullTime {
	t, _ := models.ParseNullTime(s)
	return t
}
