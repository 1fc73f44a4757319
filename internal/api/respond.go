package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/minicrm/internal/crm"
	"github.com/lalith-99/minicrm/internal/listing"
	"github.com/lalith-99/minicrm/internal/middleware"
	"github.com/lalith-99/minicrm/internal/observ"
	"go.uber.org/zap"
)

// Invalidator is told which views a successful mutation touched.
type Invalidator interface {
	Publish(ctx context.Context, userID uuid.UUID, affected []crm.EntityRef)
}

type MutationRecorder interface {
	ObserveMutation(entity, op, result string)
}

// Mutations is shared by every handler that writes: it maps the result
// of a crm operation to a response, counts it and fans out invalidation.
type Mutations struct {
	metrics     MutationRecorder
	invalidator Invalidator
	logger      *zap.Logger
}

func NewMutations(metrics MutationRecorder, invalidator Invalidator, logger *zap.Logger) *Mutations {
	return &Mutations{metrics: metrics, invalidator: invalidator, logger: logger}
}

// finish records one mutation and reports whether it succeeded. A failure
// is answered here; on success the caller writes the body.
func (m *Mutations) finish(c *gin.Context, entity, op string, out crm.Outcome, err error) bool {
	m.metrics.ObserveMutation(entity, op, resultOf(err))
	if err != nil {
		writeError(c, m.logger, err)
		return false
	}
	m.invalidator.Publish(c.Request.Context(), middleware.GetUserID(c), out.Affected)
	return true
}

func (m *Mutations) respond(c *gin.Context, status int, entity, op string, out crm.Outcome, err error) {
	if m.finish(c, entity, op, out, err) {
		c.JSON(status, out)
	}
}

func resultOf(err error) string {
	var ve *crm.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ve), errors.Is(err, crm.ErrUnauthorized):
		return "invalid"
	case errors.Is(err, crm.ErrNotFound):
		return "not_found"
	}
	return "failed"
}

// writeError maps the crm error taxonomy onto HTTP. Only unexpected
// failures are logged at error level; their cause never reaches the body.
func writeError(c *gin.Context, fallback *zap.Logger, err error) {
	logger := observ.LoggerFrom(c.Request.Context(), fallback)

	var (
		ve *crm.ValidationError
		fe *listing.FilterError
		oe *crm.OperationError
	)
	switch {
	case errors.Is(err, crm.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "redirect": middleware.LoginPath})
	case errors.As(err, &ve):
		logger.Debug("validation failed", zap.Strings("fields", ve.Fields))
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error(), "fields": ve.Fields})
	case errors.As(err, &fe):
		logger.Debug("bad filter", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": fe.Error()})
	case errors.Is(err, crm.ErrNotFound):
		logger.Debug("not found", zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &oe):
		logger.Error("operation failed",
			zap.String("op", oe.Op),
			zap.String("entity", oe.Entity),
			zap.Error(oe.Err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": oe.Error()})
	default:
		logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// parseID reads a UUID path parameter. A malformed ID is a 400.
func parseID(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// readFailed logs a failed read and answers 500 with a generic message.
func readFailed(c *gin.Context, fallback *zap.Logger, msg string, err error) {
	observ.LoggerFrom(c.Request.Context(), fallback).Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": crm.ErrNotFound.Error()})
}
