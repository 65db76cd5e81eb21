package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/spektr-org/spendshark/assistant"
	"github.com/spektr-org/spendshark/config"
	"github.com/spektr-org/spendshark/dashboard"
	"github.com/spektr-org/spendshark/engine"
	"github.com/spektr-org/spendshark/export"
	"github.com/spektr-org/spendshark/mockdata"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const sessionKey = "session"

// sessionMiddleware resolves :id and aborts with 404 for unknown sessions.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := s.store.Get(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func current(c *gin.Context) *dashboard.Session {
	return c.MustGet(sessionKey).(*dashboard.Session)
}

// ============================================================================
// SESSIONS + DATASET
// ============================================================================

func (s *Server) createSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := s.store.Create()
		c.JSON(http.StatusCreated, gin.H{
			"id":        sess.ID,
			"createdAt": sess.CreatedAt,
			"greeting":  assistant.Greeting(),
		})
	}
}

func (s *Server) deleteSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.Delete(c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func datasetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Data)
	}
}

func vendorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Data.Vendors)
	}
}

// invoicesHandler lists invoices, optionally filtered by ?status= and ?vendor= (case-insensitive).
func invoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, vendor := c.Query("status"), c.Query("vendor")
		out := make([]mockdata.Invoice, 0)
		for _, inv := range current(c).Data.Invoices {
			if status != "" && !strings.EqualFold(string(inv.Status), status) {
				continue
			}
			if vendor != "" && !strings.EqualFold(inv.Vendor, vendor) {
				continue
			}
			out = append(out, inv)
		}
		c.JSON(http.StatusOK, out)
	}
}

func invoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.ToUpper(c.Param("invoiceId"))
		inv, ok := current(c).Data.Invoice(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice " + id + " not found"})
			return
		}
		c.JSON(http.StatusOK, inv)
	}
}

func predictionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Data.Predictions)
	}
}

func predictionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		vendorID, err := strconv.Atoi(c.Param("vendorId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vendorId must be an integer"})
			return
		}
		pred, ok := current(c).Data.Prediction(vendorID)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no forecast for vendor " + c.Param("vendorId")})
			return
		}
		c.JSON(http.StatusOK, pred)
	}
}

// ============================================================================
// STATS
// ============================================================================

func vendorStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).VendorStats())
	}
}

// roiStatsHandler uses the configured platform cost unless ?platformCost= overrides it.
func (s *Server) roiStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cost := s.cfg.PlatformCostDecimal()
		if raw := c.Query("platformCost"); raw != "" {
			parsed, err := decimal.NewFromString(raw)
			if err != nil || parsed.IsNegative() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "platformCost must be a non-negative number"})
				return
			}
			cost = parsed
		}
		c.JSON(http.StatusOK, current(c).ROI(cost))
	}
}

func (s *Server) topN(c *gin.Context) (int, bool) {
	raw := c.Query("top")
	if raw == "" {
		return s.cfg.TopN, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "top must be a positive integer"})
		return 0, false
	}
	return n, true
}

func (s *Server) operatorStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.topN(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, current(c).Operators(n))
	}
}

func sourceStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Sources())
	}
}

// ============================================================================
// ANALYTICS
// ============================================================================

func chartsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		charts, err := current(c).Charts()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build charts"})
			return
		}
		c.JSON(http.StatusOK, charts)
	}
}

func (s *Server) tablesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, ok := s.topN(c)
		if !ok {
			return
		}
		tables, err := current(c).Tables(n)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build tables"})
			return
		}
		c.JSON(http.StatusOK, tables)
	}
}

func schemaHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Schema())
	}
}

func (s *Server) queryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := s.Tracer.Start(c.Request.Context(), "analytics.query")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		var spec engine.QuerySpec
		if err := c.ShouldBindJSON(&spec); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		span.SetAttributes(
			attribute.String("session.id", current(c).ID),
			attribute.String("query.intent", spec.Intent),
			attribute.String("query.aggregation", spec.Aggregation),
			attribute.StringSlice("query.group_by", spec.GroupBy),
		)

		result, err := current(c).Query(spec)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invalid query")
			body := gin.H{"error": err.Error()}
			if fields := config.ProcessValidationErrors(err); len(fields) > 0 {
				body["fields"] = fields
			}
			status := http.StatusInternalServerError
			if errors.Is(err, engine.ErrInvalidQuery) {
				status = http.StatusBadRequest
			}
			c.JSON(status, body)
			return
		}
		span.SetAttributes(attribute.Int("query.records", result.RecordCount))
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) exportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tables, err := current(c).Tables(s.cfg.TopN)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build tables"})
			return
		}
		c.Header("Content-Type", export.ContentTypeXLSX)
		c.Header("Content-Disposition", "attachment; filename=spendshark.xlsx")
		if err := export.WriteTables(c.Writer, tables...); err != nil {
			config.LogError(s.logger, "server", "exportHandler", "write workbook", current(c).ID, err)
			c.Status(http.StatusInternalServerError)
		}
	}
}

// ============================================================================
// CHAT + SIDEBAR
// ============================================================================

type chatMessageRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

func chatToggleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"open": current(c).Panel.Toggle()})
	}
}

func chatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Panel.Snapshot())
	}
}

// chatMessageHandler accepts a user message. The bot reply arrives later
// and is read back through GET /chat.
func (s *Server) chatMessageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := current(c)
		_, span := s.Tracer.Start(c.Request.Context(), "chat.submit")
		defer span.End()
		span.SetAttributes(attribute.String("session.id", sess.ID))

		var req chatMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if err := config.Validator().Struct(req); err != nil {
			span.RecordError(err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": config.ProcessValidationErrors(err)})
			return
		}
		span.SetAttributes(attribute.Int("chat.text_length", len(req.Text)))

		// replies must outlive this request, so they hang off the session context
		if !sess.Panel.Submit(sess.Context(), req.Text) {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"typing": sess.Panel.Typing()})
	}
}

func sidebarToggleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Sidebar.ToggleMenu())
	}
}

func sidebarDismissHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, current(c).Sidebar.DismissBackdrop())
	}
}
