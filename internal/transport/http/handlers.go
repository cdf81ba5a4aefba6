package smarthttp

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"smartorder/internal/analysis/visual"
	"smartorder/internal/engine"
	"smartorder/internal/logger"
	"smartorder/internal/store"
	"smartorder/internal/store/auditlog"
	"smartorder/internal/types"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "smartorder"})
}

// handleRecommend runs the pipeline and, when stores are configured,
// persists the ticket and appends the audit trace.
func (s *Server) handleRecommend(c *gin.Context) {
	var req types.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := s.engine.Recommend(req)
	if err != nil {
		s.appendAudit(c, req, rec, "", err)
		if errors.Is(err, engine.ErrComputation) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recommendation failed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ticketID := ""
	if s.tickets != nil {
		saved, err := s.tickets.SaveTicket(c.Request.Context(), store.TicketRecord{
			ClientID:       req.ClientID,
			Symbol:         req.Symbol,
			Side:           req.Side,
			OrderSize:      req.OrderSize,
			TimeToClose:    req.TimeToClose,
			Notes:          req.Notes,
			AlgoType:       rec.CoreOrderFields.AlgoType,
			OrderType:      rec.CoreOrderFields.OrderType,
			Urgency:        rec.ContextFlags.UrgencyLevel,
			FatFinger:      rec.ContextFlags.FatFingerFlag,
			Recommendation: rec,
		})
		if err != nil {
			// Persistence trouble must not block the trader's prefill.
			logger.Errorf("save ticket failed: %v", err)
		} else {
			ticketID = saved.ID
		}
	}
	s.appendAudit(c, req, rec, ticketID, nil)

	resp := gin.H{
		"core_order_fields": rec.CoreOrderFields,
		"algo_parameters":   rec.AlgoParameters,
		"context_flags":     rec.ContextFlags,
		"explanations":      rec.Explanations,
	}
	if ticketID != "" {
		resp["ticket_id"] = ticketID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) appendAudit(c *gin.Context, req types.OrderRequest, rec types.Recommendation, ticketID string, recErr error) {
	if s.audit == nil {
		return
	}
	entry := auditlog.Record{
		TicketID:     ticketID,
		ClientID:     req.ClientID,
		Symbol:       req.Symbol,
		Side:         string(req.Side),
		OrderSize:    req.OrderSize,
		TimeToClose:  req.TimeToClose,
		Notes:        req.Notes,
		AlgoType:     string(rec.CoreOrderFields.AlgoType),
		OrderType:    string(rec.CoreOrderFields.OrderType),
		Urgency:      string(rec.ContextFlags.UrgencyLevel),
		FatFinger:    rec.ContextFlags.FatFingerFlag,
		Explanations: rec.Explanations,
		Flags:        rec.ContextFlags,
	}
	if recErr != nil {
		entry.Error = recErr.Error()
	}
	if err := s.audit.Append(c.Request.Context(), entry); err != nil {
		logger.Warnf("audit append failed: %v", err)
	}
}

func (s *Server) handleListTickets(c *gin.Context) {
	if s.tickets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ticket store not configured"})
		return
	}
	opts := store.ListOptions{
		ClientID: strings.TrimSpace(c.Query("client_id")),
		Symbol:   strings.TrimSpace(c.Query("symbol")),
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	}
	records, err := s.tickets.ListTickets(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	total, err := s.tickets.CountTickets(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": ticketViews(records), "total": total})
}

func (s *Server) handleGetTicket(c *gin.Context) {
	if s.tickets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ticket store not configured"})
		return
	}
	rec, ok, err := s.tickets.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}
	c.JSON(http.StatusOK, ticketView(rec))
}

func (s *Server) handleAudit(c *gin.Context) {
	if s.audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log not configured"})
		return
	}
	records, err := s.audit.Recent(c.Request.Context(), c.Query("client_id"), queryInt(c, "limit", 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": records})
}

// handleStats renders the admin chart page from the stored ticket
// aggregates.
func (s *Server) handleStats(c *gin.Context) {
	if s.tickets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "ticket store not configured"})
		return
	}
	mix, err := s.tickets.AlgoMix(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	recent, err := s.tickets.ListTickets(c.Request.Context(), store.ListOptions{Limit: 500})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	urgency := make(map[types.Bucket]int)
	for _, rec := range recent {
		urgency[rec.Urgency]++
	}
	total := 0
	for _, n := range mix {
		total += n
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := visual.RenderStats(c.Writer, visual.Stats{AlgoMix: mix, UrgencyMix: urgency, Total: total}); err != nil {
		logger.Errorf("render stats failed: %v", err)
	}
}

type ticketViewModel struct {
	ID             string               `json:"id"`
	ClientID       string               `json:"client_id"`
	Symbol         string               `json:"symbol"`
	Side           types.Side           `json:"side"`
	OrderSize      int64                `json:"order_size"`
	TimeToClose    int                  `json:"time_to_close"`
	Notes          string               `json:"notes,omitempty"`
	AlgoType       types.Algo           `json:"algo_type"`
	OrderType      types.OrderType      `json:"order_type"`
	Urgency        types.Bucket         `json:"urgency"`
	FatFinger      bool                 `json:"fat_finger"`
	Recommendation types.Recommendation `json:"recommendation"`
	CreatedAt      int64                `json:"created_at"`
}

func ticketView(rec store.TicketRecord) ticketViewModel {
	return ticketViewModel{
		ID:             rec.ID,
		ClientID:       rec.ClientID,
		Symbol:         rec.Symbol,
		Side:           rec.Side,
		OrderSize:      rec.OrderSize,
		TimeToClose:    rec.TimeToClose,
		Notes:          rec.Notes,
		AlgoType:       rec.AlgoType,
		OrderType:      rec.OrderType,
		Urgency:        rec.Urgency,
		FatFinger:      rec.FatFinger,
		Recommendation: rec.Recommendation,
		CreatedAt:      rec.CreatedAt.UnixMilli(),
	}
}

func ticketViews(records []store.TicketRecord) []ticketViewModel {
	out := make([]ticketViewModel, 0, len(records))
	for _, rec := range records {
		out = append(out, ticketView(rec))
	}
	return out
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
