package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studiops/bankrecon/internal/apperr"
	"github.com/studiops/bankrecon/internal/matching"
	"github.com/studiops/bankrecon/internal/model"
	"github.com/studiops/bankrecon/internal/report"
)

type runRequest struct {
	ImportID  string `json:"importId"`
	AutoApply bool   `json:"autoApply"`
}

func (s *Server) runMatching(c *gin.Context) {
	// The body is optional; an empty one, chunked or not, decodes to io.EOF.
	var body runRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			s.fail(c, apperr.Invalid("invalid request body").WithDetails(err.Error()))
			return
		}
	}

	res, err := s.engine.Run(c.Request.Context(), matching.Request{
		ImportID:  body.ImportID,
		AutoApply: body.AutoApply,
		Actor:     c.GetString(actorKey),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	if c.Query("format") == "csv" {
		name := fmt.Sprintf("suggestions-%s.csv", time.Now().UTC().Format("20060102-150405"))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Status(http.StatusOK)
		c.Writer.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := report.Write(c.Writer, report.Rows(res.Suggestions)); err != nil {
			s.logger.Error("writing suggestions csv", "error", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "matches": res.Suggestions, "stats": res.Stats})
}

type linkRequest struct {
	MatchedType string `json:"matchedType"`
	MatchedID   string `json:"matchedId"`
	Confidence  string `json:"confidence"`
}

func (r linkRequest) target() (matching.Target, error) {
	typ, ok := model.ParseTargetType(r.MatchedType)
	if !ok {
		return matching.Target{}, apperr.Invalid("matchedType must be invoice or expense")
	}
	if r.MatchedID == "" {
		return matching.Target{}, apperr.Invalid("matchedId is required")
	}
	return matching.Target{Type: typ, ID: r.MatchedID}, nil
}

func (s *Server) approve(c *gin.Context) {
	var body linkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, apperr.Invalid("invalid request body").WithDetails(err.Error()))
		return
	}
	t, err := body.target()
	if err != nil {
		s.fail(c, err)
		return
	}
	conf, ok := model.ParseConfidence(body.Confidence)
	if !ok {
		s.fail(c, apperr.Invalid("confidence must be high, medium or low"))
		return
	}
	tx, err := s.engine.Approve(c.Request.Context(), c.Param("id"), t, conf, c.GetString(actorKey))
	s.reviewed(c, tx, err)
}

func (s *Server) manualMatch(c *gin.Context) {
	var body linkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, apperr.Invalid("invalid request body").WithDetails(err.Error()))
		return
	}
	t, err := body.target()
	if err != nil {
		s.fail(c, err)
		return
	}
	tx, err := s.engine.ManualMatch(c.Request.Context(), c.Param("id"), t, c.GetString(actorKey))
	s.reviewed(c, tx, err)
}

func (s *Server) reject(c *gin.Context) {
	tx, err := s.engine.Reject(c.Request.Context(), c.Param("id"), c.GetString(actorKey))
	s.reviewed(c, tx, err)
}

func (s *Server) ignore(c *gin.Context) {
	tx, err := s.engine.Ignore(c.Request.Context(), c.Param("id"), c.GetString(actorKey))
	s.reviewed(c, tx, err)
}

func (s *Server) reviewed(c *gin.Context, tx *model.BankTransaction, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transaction": tx})
}
