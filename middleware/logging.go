package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"timetable_go/database"
	"timetable_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// auditQueueKey is the Redis sorted set holding cached audit log keys
// until the flush job moves them into Postgres.
const auditQueueKey = "audit:queue"

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"duration":   duration.String(),
			"ip":         c.IP(),
			"user_agent": c.Get("User-Agent"),
		}).Info("HTTP Request")

		return err
	}
}

// LogAudit records a user action. Writes go to Redis first (write-behind,
// 24-hour TTL) and fall back to a direct database insert when Redis is
// unavailable. The flush job in services drains the queue.
func LogAudit(c *fiber.Ctx, action, resource, resourceID string, details interface{}) {
	var user *models.User
	if u, err := GetCurrentUser(c); err == nil {
		user = u
	}

	var detailsJSON models.JSON
	if details != nil {
		if detailsBytes, err := json.Marshal(details); err == nil {
			detailsJSON = detailsBytes
		}
	}

	entry := models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
		IPAddress:  c.IP(),
		UserAgent:  c.Get("User-Agent"),
	}
	if user != nil {
		id := user.ID
		entry.UserID = &id
	}

	go func(al models.AuditLog) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithField("panic", r).Error("panic recovered in LogAudit goroutine")
			}
		}()

		if err := cacheAuditLog(al); err != nil {
			logrus.WithError(err).Warn("Failed to cache audit log, saving directly to database")
			if database.DB == nil {
				logrus.Error("database.DB is nil; cannot save audit log")
				return
			}
			if dbErr := database.DB.Create(&al).Error; dbErr != nil {
				logrus.WithError(dbErr).Error("Failed to save audit log to database")
			}
		}
	}(entry)
}

// cacheAuditLog stores an audit log in Redis with a 24-hour TTL and queues
// it for the flush job.
func cacheAuditLog(entry models.AuditLog) error {
	redisClient := database.GetRedisClient()
	if redisClient == nil {
		return fmt.Errorf("redis client is nil")
	}
	ctx := context.Background()

	logData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log: %v", err)
	}

	cacheKey := fmt.Sprintf("audit:%s:%d", entry.Action, time.Now().UnixNano())

	if err := redisClient.Set(ctx, cacheKey, logData, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache audit log: %v", err)
	}

	if err := redisClient.ZAdd(ctx, auditQueueKey, &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: cacheKey,
	}).Err(); err != nil {
		logrus.WithError(err).Error("Failed to queue audit log for flushing")
	}

	return nil
}

// AuditQueueKey exposes the queue key to the flush service.
func AuditQueueKey() string {
	return auditQueueKey
}

// AuditMiddleware automatically logs mutating requests
func AuditMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip logging for reads and auth endpoints
		if c.Method() == "GET" || strings.Contains(c.Path(), "/auth/") {
			return c.Next()
		}

		err := c.Next()

		var action string
		switch c.Method() {
		case "POST":
			action = "CREATE"
		case "PUT", "PATCH":
			action = "UPDATE"
		case "DELETE":
			action = "DELETE"
		default:
			return err
		}

		// Extract resource from path, assumes /api/resource format
		pathParts := strings.Split(strings.Trim(c.Path(), "/"), "/")
		var resource string
		if len(pathParts) >= 2 {
			resource = pathParts[1]
		}

		if c.Response().StatusCode() < 400 {
			LogAudit(c, action, resource, c.Params("id"), nil)
		}

		return err
	}
}
