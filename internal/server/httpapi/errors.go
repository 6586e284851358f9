package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kingfluencer/backend/internal/common"
)

// statusFor maps the sentinel taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrConflict), errors.Is(err, common.ErrOldNotVerified):
		return http.StatusConflict
	case errors.Is(err, common.ErrNoChallenge),
		errors.Is(err, common.ErrExpired),
		errors.Is(err, common.ErrCodeMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the mapped status with the sentinel's message. The
// wrapped detail stays in the logs; clients get the category only.
func (s *Server) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// respondOTPError collapses the three verification outcomes into one
// client-facing message so the response does not reveal whether a
// challenge exists. The distinct reason still goes to the log.
func (s *Server) respondOTPError(c *gin.Context, err error) {
	if errors.Is(err, common.ErrNoChallenge) ||
		errors.Is(err, common.ErrExpired) ||
		errors.Is(err, common.ErrCodeMismatch) {
		s.logger.Info(c.Request.Context(), "code verification failed", "path", c.FullPath(), "reason", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
		return
	}
	s.respondError(c, err)
}
