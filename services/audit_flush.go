package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"timetable_go/config"
	"timetable_go/database"
	"timetable_go/middleware"
	"timetable_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AuditFlushService drains Redis-cached audit logs into Postgres and
// prunes entries past the retention window.
type AuditFlushService struct {
	redisClient *redis.Client
	cron        *cron.Cron
}

// NewAuditFlushService creates a new service instance
func NewAuditFlushService() *AuditFlushService {
	return &AuditFlushService{
		redisClient: database.GetRedisClient(),
		cron:        cron.New(),
	}
}

// FlushCachedLogs moves audit logs from the Redis queue to the database.
// Entries younger than the grace period stay cached so bursts coalesce.
func (afs *AuditFlushService) FlushCachedLogs() error {
	if afs.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-5 * time.Minute)

	queued, err := afs.redisClient.ZRangeByScore(ctx, middleware.AuditQueueKey(), &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoff.Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read audit queue: %v", err)
	}

	if len(queued) == 0 {
		return nil
	}

	var processed, failed int
	for _, key := range queued {
		data, err := afs.redisClient.Get(ctx, key).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to get audit log for key: %s", key)
				failed++
			}
			// Expired or missing: drop the queue entry
			afs.redisClient.ZRem(ctx, middleware.AuditQueueKey(), key)
			continue
		}

		var entry models.AuditLog
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal audit log for key: %s", key)
			failed++
			continue
		}

		if err := database.DB.Create(&entry).Error; err != nil {
			logrus.WithError(err).Error("Failed to save audit log to database")
			failed++
			continue
		}

		pipeline := afs.redisClient.Pipeline()
		pipeline.Del(ctx, key)
		pipeline.ZRem(ctx, middleware.AuditQueueKey(), key)
		if _, err := pipeline.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove audit log from cache: %s", key)
		}

		processed++
	}

	logrus.Infof("Flushed %d audit logs to database, %d errors", processed, failed)
	return nil
}

// CleanupOldLogs deletes audit logs past the configured retention window.
func (afs *AuditFlushService) CleanupOldLogs() error {
	days := config.AppConfig.AuditRetentionDays
	if days < 7 {
		return fmt.Errorf("minimum retention is 7 days for safety")
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	result := database.DB.Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete old audit logs: %v", result.Error)
	}

	if result.RowsAffected > 0 {
		logrus.Infof("Deleted %d audit logs older than %s", result.RowsAffected, cutoff.Format("2006-01-02"))
	}
	return nil
}

// Start schedules the flush and cleanup jobs and runs an initial flush.
func (afs *AuditFlushService) Start() {
	if _, err := afs.cron.AddFunc("@every 15m", func() {
		if err := afs.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("periodic FlushCachedLogs failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to schedule audit flush job")
	}

	if _, err := afs.cron.AddFunc("0 3 * * *", func() {
		if err := afs.CleanupOldLogs(); err != nil {
			logrus.WithError(err).Warn("periodic CleanupOldLogs failed")
		}
	}); err != nil {
		logrus.WithError(err).Error("Failed to schedule audit cleanup job")
	}

	afs.cron.Start()

	go func() {
		if err := afs.FlushCachedLogs(); err != nil {
			logrus.WithError(err).Warn("initial FlushCachedLogs failed")
		}
	}()
}

// Stop halts the scheduled jobs.
func (afs *AuditFlushService) Stop() {
	afs.cron.Stop()
}
