package server

import (
	"github.com/gin-gonic/gin"

	"github.com/studiops/bankrecon/internal/apperr"
)

// fail writes err as {error, details} with the status of its kind.
func (s *Server) fail(c *gin.Context, err error) {
	ae := apperr.As(err)
	details := ae.Details
	if ae.Kind == apperr.KindInternal {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		if details == "" && ae.Err != nil {
			details = ae.Err.Error()
		}
	}
	c.JSON(ae.Status(), gin.H{"error": ae.Message, "details": details})
}
