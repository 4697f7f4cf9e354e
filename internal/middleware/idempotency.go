package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	ReplayHeader        = "X-Idempotent-Replay"
)

// Idempotency replays the stored response for a repeated X-Correlation-ID.
// Only 2xx responses of mutating requests are stored; requests without the header pass through.
// The key includes the caller and path so two users cannot collide on the same ID.
// A stored response is only replayed for the same request body; reusing an ID with a
// different body is rejected with 422, which also covers unauthenticated routes.
func Idempotency(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(CorrelationIDHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s:%s", EmployeeID(c), c.Path(), correlationID)
		fingerprint := requestFingerprint(c)
		ctx := c.UserContext()

		cached, err := redisClient.HGetAll(ctx, key).Result()
		switch {
		case err != nil:
			// Redis down: serve the request without replay protection
			zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency lookup failed")
		case cached["body"] != "" && cached["fingerprint"] != fingerprint:
			zerolog.Ctx(ctx).Warn().Str("correlation_id", correlationID).Msg("correlation id reused with a different body")
			return fiber.NewError(fiber.StatusUnprocessableEntity, "X-Correlation-ID was already used for a different request")
		case cached["body"] != "":
			status, convErr := strconv.Atoi(cached["status"])
			if convErr != nil {
				status = fiber.StatusOK
			}
			c.Set(ReplayHeader, "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(status).Send([]byte(cached["body"]))
		}

		if err := c.Next(); err != nil {
			return err
		}

		statusCode := c.Response().StatusCode()
		body := c.Response().Body()
		if statusCode < 200 || statusCode >= 300 || len(body) == 0 {
			return nil
		}

		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		pipe := redisClient.TxPipeline()
		pipe.HSet(storeCtx, key, "status", statusCode, "body", string(body), "fingerprint", fingerprint)
		pipe.Expire(storeCtx, key, ttl)
		if _, err := pipe.Exec(storeCtx); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("idempotency store failed")
		}

		return nil
	}
}

func requestFingerprint(c *fiber.Ctx) string {
	sum := sha256.Sum256(c.Body())
	return hex.EncodeToString(sum[:])
}
