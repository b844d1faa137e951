package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gharseva/gharseva-backend/internal/events"
	"github.com/gharseva/gharseva-backend/internal/notifications"
	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	pkgerrors "github.com/gharseva/gharseva-backend/pkg/errors"
	"github.com/gharseva/gharseva-backend/pkg/logger"
)

// Handler maps one business event onto notification writes.
type Handler func(ctx context.Context, event events.Event) error

// Result reports the outcome of a single event dispatch. The engine never
// propagates errors to its caller; failures are folded into the result so
// the middleware path is never blocked by a bad event.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type userDirectory interface {
	ListActiveAdmins(ctx context.Context) ([]models.User, error)
	ListActiveUsers(ctx context.Context) ([]models.User, error)
}

// Engine holds the static event registry built once at startup. It is the
// decision layer for who gets notified with what content when a business
// fact occurs elsewhere in the system.
type Engine struct {
	notifications notifications.Service
	users         userDirectory
	logg          *logger.Logger
	handlers      map[string]Handler
}

// NewEngine wires the dispatch table.
func NewEngine(svc notifications.Service, users userDirectory, logg *logger.Logger) (*Engine, error) {
	if svc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user directory required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}

	engine := &Engine{
		notifications: svc,
		users:         users,
		logg:          logg,
	}
	engine.handlers = engine.buildRegistry()
	return engine, nil
}

// Trigger looks up the handler for the event type and runs it. Unknown
// event names and handler errors both come back as a failed Result.
func (e *Engine) Trigger(ctx context.Context, event events.Event) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logg.Error(ctx, "event handler panicked", fmt.Errorf("panic: %v", r))
			result = Result{Success: false, Error: fmt.Sprintf("panic: %v", r)}
		}
	}()

	handler, ok := e.handlers[event.Type]
	if !ok {
		return Result{Success: false, Error: "no handler for event: " + event.Type}
	}

	ctx = e.logg.WithEventType(ctx, event.Type)
	if err := handler(ctx, event); err != nil {
		e.logg.Error(ctx, "event handler failed", err)
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true}
}

// RegisteredEvents lists the event names the engine will accept.
func (e *Engine) RegisteredEvents() []string {
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	return names
}

// notifyAdmins inserts one notification per active admin. Zero admins is
// a normal no-op outcome. Rows are written independently; a failure for
// one admin is logged and does not stop the rest.
func (e *Engine) notifyAdmins(ctx context.Context, params notifications.CreateParams) error {
	admins, err := e.users.ListActiveAdmins(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admins")
	}
	for _, admin := range admins {
		params.RecipientID = admin.ID
		if _, err := e.notifications.Create(ctx, params); err != nil {
			e.logg.Error(e.logg.WithUserID(ctx, admin.ID.String()), "admin notification failed", err)
		}
	}
	return nil
}

// broadcast writes one notification per active user in a single batched
// insert. A user-fetch failure aborts before anything is written.
func (e *Engine) broadcast(ctx context.Context, notificationType, title, message string, priority enums.NotificationPriority, metadata map[string]any) error {
	recipients, err := e.users.ListActiveUsers(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active users")
	}
	if len(recipients) == 0 {
		return nil
	}

	batch := make([]notifications.CreateParams, 0, len(recipients))
	for _, user := range recipients {
		batch = append(batch, notifications.CreateParams{
			Type:        notificationType,
			Title:       title,
			Message:     message,
			RecipientID: user.ID,
			Priority:    priority,
			Metadata:    metadata,
		})
	}
	if _, err := e.notifications.CreateMany(ctx, batch); err != nil {
		return err
	}
	return nil
}

// CleanupOld deletes notifications created before now minus daysOld days,
// optionally restricted to one status. Returns the number of rows removed.
func (e *Engine) CleanupOld(ctx context.Context, daysOld int, status *enums.NotificationStatus) (int64, error) {
	if daysOld <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "daysOld must be positive")
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysOld)
	return e.notifications.DeleteOlderThan(ctx, cutoff, status)
}

// Stats aggregates notification counts, platform-wide when recipientID
// is nil.
func (e *Engine) Stats(ctx context.Context, recipientID *uuid.UUID) (*notifications.StatsResult, error) {
	return e.notifications.Stats(ctx, recipientID)
}
