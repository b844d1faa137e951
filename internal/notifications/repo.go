package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gharseva/gharseva-backend/pkg/db/models"
	"github.com/gharseva/gharseva-backend/pkg/enums"
	"github.com/gharseva/gharseva-backend/pkg/pagination"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	CreateBatch(ctx context.Context, notifications []models.Notification) error
	List(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error)
	MarkAllRead(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID, now time.Time) (int64, error)
	Dismiss(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error)
	CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, status *enums.NotificationStatus) (int64, error)
	Stats(ctx context.Context, recipientID *uuid.UUID, recentLimit int) (*StatsResult, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listNotificationsParams struct {
	RecipientID uuid.UUID
	Page        pagination.Params
	Type        string
	Status      *enums.NotificationStatus
}

type notificationMarkResult struct {
	Updated bool
	Found   bool
}

// StatsResult aggregates a recipient's (or the whole platform's)
// notification counts plus the most recent rows.
type StatsResult struct {
	Total      int64                 `json:"total"`
	Unread     int64                 `json:"unread"`
	ByType     map[string]int64      `json:"by_type"`
	ByStatus   map[string]int64      `json:"by_status"`
	ByPriority map[string]int64      `json:"by_priority"`
	Recent     []models.Notification `json:"recent"`
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repositoryImpl) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(notifications, 200).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listNotificationsParams) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", params.RecipientID)
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []models.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Limit(params.Page.Limit).
		Offset(params.Page.Offset()).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// transitionColumns builds the update set for a status change, stamping
// the acting user into sender_id when one was supplied.
func transitionColumns(status enums.NotificationStatus, timestampColumn string, actorID *uuid.UUID, now time.Time) map[string]any {
	columns := map[string]any{"status": status, timestampColumn: now}
	if actorID != nil {
		columns["sender_id"] = *actorID
	}
	return columns
}

func (r *repositoryImpl) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND status = ?", notificationID, recipientID, enums.NotificationStatusUnread).
		UpdateColumns(transitionColumns(enums.NotificationStatusRead, "read_at", actorID, now))
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if mark.Updated {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, recipientID uuid.UUID, actorID *uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND status = ?", recipientID, enums.NotificationStatusUnread).
		UpdateColumns(transitionColumns(enums.NotificationStatusRead, "read_at", actorID, now))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) Dismiss(ctx context.Context, recipientID, notificationID uuid.UUID, actorID *uuid.UUID, now time.Time) (notificationMarkResult, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND status <> ?", notificationID, recipientID, enums.NotificationStatusDismissed).
		UpdateColumns(transitionColumns(enums.NotificationStatusDismissed, "dismissed_at", actorID, now))
	if result.Error != nil {
		return notificationMarkResult{}, result.Error
	}

	mark := notificationMarkResult{Updated: result.RowsAffected > 0}
	if mark.Updated {
		mark.Found = true
		return mark, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", notificationID, recipientID).
		Count(&count).Error; err != nil {
		return notificationMarkResult{}, err
	}
	mark.Found = count > 0
	return mark, nil
}

func (r *repositoryImpl) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND status = ?", recipientID, enums.NotificationStatusUnread).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time, status *enums.NotificationStatus) (int64, error) {
	query := r.db.WithContext(ctx).Where("created_at < ?", cutoff)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	result := query.Delete(&models.Notification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

type groupCount struct {
	Key   string `gorm:"column:key"`
	Count int64  `gorm:"column:count"`
}

func (r *repositoryImpl) Stats(ctx context.Context, recipientID *uuid.UUID, recentLimit int) (*StatsResult, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Notification{})
		if recipientID != nil {
			query = query.Where("recipient_id = ?", *recipientID)
		}
		return query
	}

	stats := &StatsResult{
		ByType:     map[string]int64{},
		ByStatus:   map[string]int64{},
		ByPriority: map[string]int64{},
	}

	if err := scoped().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := scoped().Where("status = ?", enums.NotificationStatusUnread).Count(&stats.Unread).Error; err != nil {
		return nil, err
	}

	for _, group := range []struct {
		column string
		dest   map[string]int64
	}{
		{"type", stats.ByType},
		{"status", stats.ByStatus},
		{"priority", stats.ByPriority},
	} {
		var rows []groupCount
		err := scoped().
			Select(group.column + ` AS key, COUNT(*) AS count`).
			Group(group.column).
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			group.dest[row.Key] = row.Count
		}
	}

	if recentLimit > 0 {
		err := scoped().
			Order("created_at DESC, id DESC").
			Limit(recentLimit).
			Find(&stats.Recent).Error
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}
