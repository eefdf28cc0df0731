package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog"
)

// CloseExpiredQueue is the queue name of CloseExpiredAnnouncementsTask.
const CloseExpiredQueue = "close_expired_announcements"

// AnnouncementCloser closes open announcements whose end date has passed.
type AnnouncementCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int64, error)
}

// CloseExpiredAnnouncementsTask closes every open announcement whose end
// date is before the time the task runs.
type CloseExpiredAnnouncementsTask struct {
	Trigger string `json:"trigger,omitempty"` // "schedule" or "manual"
}

// Config returns the queue configuration for expiry tasks.
func (t CloseExpiredAnnouncementsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        CloseExpiredQueue,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CloseExpiredProcessor creates the processor for CloseExpiredAnnouncementsTask.
func CloseExpiredProcessor(closer AnnouncementCloser, logger zerolog.Logger, now func() time.Time) backlite.QueueProcessor[CloseExpiredAnnouncementsTask] {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, task CloseExpiredAnnouncementsTask) error {
		if closer == nil {
			return fmt.Errorf("announcement store not configured")
		}

		closed, err := closer.CloseExpired(ctx, now())
		if err != nil {
			return fmt.Errorf("close expired announcements: %w", err)
		}

		logger.Info().Int64("closed", closed).Str("trigger", task.Trigger).Msg("closed expired announcements")
		return nil
	}
}

// EnqueueCloseExpired adds one CloseExpiredAnnouncementsTask and returns its ID.
func (c *Client) EnqueueCloseExpired(trigger string) (string, error) {
	ids, err := c.Add(CloseExpiredAnnouncementsTask{Trigger: trigger}).Save()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", CloseExpiredQueue, err)
	}
	return ids[0], nil
}

// NewCloseExpiredQueue creates a backlite queue for expiry tasks.
func NewCloseExpiredQueue(closer AnnouncementCloser, logger zerolog.Logger) backlite.Queue {
	return backlite.NewQueue(CloseExpiredProcessor(closer, logger, nil))
}
