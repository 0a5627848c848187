package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/service/reporting"
	"github.com/mamadbah2/salesreport/internal/spreadsheet"
)

// ReportHandler serves generated and archived reports.
type ReportHandler struct {
	reports *reporting.Service
	logger  *zap.Logger
}

// NewReportHandler constructs the HTTP handler adapter.
func NewReportHandler(reports *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{reports: reports, logger: logger}
}

// Get returns the report for ?date= (default today) as JSON.
func (h *ReportHandler) Get(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	report, err := h.reports.Generate(c.Request.Context(), date)
	if err != nil {
		h.logger.Error("failed generating report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to generate report"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Export returns the records and the report as an xlsx workbook. Both sheets
// come from the same snapshot.
func (h *ReportHandler) Export(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	report, records, err := h.reports.GenerateWithRecords(c.Request.Context(), date)
	if err != nil {
		h.logger.Error("failed generating report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to generate report"})
		return
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, records, report); err != nil {
		h.logger.Error("failed writing workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to export report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"sales-report-%s.xlsx\"", date))
	c.Data(http.StatusOK, spreadsheet.ContentTypeXLSX, buf.Bytes())
}

// History lists archived daily reports, newest first.
func (h *ReportHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = n
	}

	reports, err := h.reports.History(c.Request.Context(), limit)
	switch {
	case errors.Is(err, reporting.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("failed listing report history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reports), "reports": reports})
}

func (h *ReportHandler) date(c *gin.Context) (civil.Date, bool) {
	raw := c.Query("date")
	if raw == "" {
		return h.reports.Today(), true
	}
	date, err := civil.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return civil.Date{}, false
	}
	return date, true
}
