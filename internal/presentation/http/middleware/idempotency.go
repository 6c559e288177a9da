package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/domain/repository"
	"github.com/sangkips/repairshop-api/internal/presentation/http/dto/response"
	"github.com/sangkips/repairshop-api/pkg/apperror"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL bounds how long a checkout or intake can be retried.
	IdempotencyKeyTTL = 24 * time.Hour
)

// recorder tees the handler's response so it can be stored for replay.
type recorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (r *recorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *recorder) WriteString(s string) (int, error) {
	r.buf.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// fingerprint reads the body, restores it for the handler and returns its
// sha256 so a reused key with a different cart can be told apart.
func fingerprint(req *http.Request) (string, error) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}

// Idempotent guards sale and service submissions. Each POST must carry an
// Idempotency-Key; a retry with the same key and body replays the first
// successful response without touching stock again.
func Idempotent(repo repository.IdempotencyRepository, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			response.Error(c, apperror.NewBadRequestError(IdempotencyKeyHeader+" header is required for this request"))
			c.Abort()
			return
		}
		userID, _ := c.Get(ContextUserID)
		uid, ok := userID.(uuid.UUID)
		if !ok {
			response.Error(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		hash, err := fingerprint(c.Request)
		if err != nil {
			response.Error(c, apperror.NewBadRequestError("Could not read request body"))
			c.Abort()
			return
		}

		endpoint := c.Request.Method + " " + c.FullPath()
		prev, err := repo.GetByKey(c.Request.Context(), key, uid, endpoint)
		if err != nil {
			response.Error(c, apperror.NewPersistenceError("idempotency lookup", err))
			c.Abort()
			return
		}
		if prev != nil && !prev.IsExpired() {
			if prev.RequestHash != hash {
				response.Error(c, apperror.NewFieldValidationError(IdempotencyKeyHeader, "already used for a different request"))
				c.Abort()
				return
			}
			c.Header(IdempotencyReplayedHeader, "true")
			c.Data(prev.ResponseCode, "application/json; charset=utf-8", []byte(prev.ResponseBody))
			c.Abort()
			return
		}

		rec := &recorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}
		entry := &entity.IdempotencyKey{
			Key:          key,
			UserID:       uid,
			Endpoint:     endpoint,
			RequestHash:  hash,
			ResponseCode: status,
			ResponseBody: rec.buf.String(),
			ExpiresAt:    time.Now().UTC().Add(IdempotencyKeyTTL),
		}
		if err := repo.Save(c.Request.Context(), entry); err != nil {
			log.Warn("idempotency key not stored", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}
}
