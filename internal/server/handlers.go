package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ppiankov/subnet-miner/internal/model"
	"github.com/ppiankov/subnet-miner/internal/store"
)

// HealthResponse is returned by /health
type HealthResponse struct {
	Status       string  `json:"status"`
	Agent        string  `json:"agent"`
	MinerVersion string  `json:"miner_version"`
	Uptime       float64 `json:"uptime_seconds"`
}

func (s *Server) health(c *gin.Context) {
	stats := s.processor.Stats()
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Agent:        stats.Agent.Name,
		MinerVersion: s.cfg.MinerVersion,
		Uptime:       stats.Uptime,
	})
}

func (s *Server) stats(c *gin.Context) {
	body := gin.H{
		"miner_version": s.cfg.MinerVersion,
		"stats":         s.processor.Stats(),
	}

	if s.history != nil {
		counts, err := s.history.CountByResolution(c.Request.Context())
		if err != nil {
			s.log.Warn("failed to count history", "error", err)
		} else {
			body["history"] = counts
		}
	}

	c.JSON(http.StatusOK, body)
}

// verify runs one statement through the processor. Requests that fail the
// blacklist rules are refused before reaching the agent.
func (s *Server) verify(c *gin.Context) {
	requestID := uuid.New().String()
	c.Header("X-Request-ID", requestID)

	var req model.SynapseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.reject(c, "malformed", "invalid request body: "+err.Error())
		return
	}

	req.Statement = strings.TrimSpace(req.Statement)
	req.EndDate = strings.TrimSpace(req.EndDate)
	if err := s.validate.Struct(req); err != nil {
		s.reject(c, "blacklisted", blacklistReason(err))
		return
	}

	start := time.Now()
	resp := s.processor.Process(c.Request.Context(), req.ToStatement())
	elapsed := time.Since(start).Seconds()

	out := model.NewSynapseResponse(resp, elapsed, s.cfg.MinerVersion)
	out.RequestID = requestID

	s.log.Info("served verification",
		"request_id", requestID,
		"statement_id", req.StatementID,
		"resolution", resp.Resolution,
		"confidence", resp.Confidence,
		"analysis_time", elapsed,
	)
	c.JSON(http.StatusOK, out)
}

func (s *Server) lookupResponse(c *gin.Context) {
	rec, err := s.history.FindByProofHash(c.Request.Context(), c.Param("proof_hash"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "response not found"})
		return
	}
	if err != nil {
		s.log.Error("history lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "history lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           rec.ID,
		"statement_id": rec.StatementID,
		"outcome":      rec.Outcome,
		"elapsed_ms":   rec.Elapsed.Milliseconds(),
		"created_at":   rec.CreatedAt,
		"response":     rec.Response,
	})
}

func (s *Server) reject(c *gin.Context, reason, message string) {
	if s.metrics != nil {
		s.metrics.Rejected(reason)
	}
	s.log.Debug("rejected request", "reason", reason, "error", message)
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
	})
}

// blacklistReason turns validator errors into a short message
func blacklistReason(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "missing " + field
	case "min":
		return field + " too short (min " + fe.Param() + " characters)"
	case "max":
		return field + " too long (max " + fe.Param() + " characters)"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	default:
		return "invalid " + field
	}
}
