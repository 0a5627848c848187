package handlers

import (
	"errors"
	"net/http"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/service/ingest"
)

// maxUploadBytes bounds spreadsheet uploads.
const maxUploadBytes = 10 << 20

// Clock gives the current business date.
type Clock interface {
	Today() civil.Date
}

// RecordsHandler exposes sale record entry, listing and import.
type RecordsHandler struct {
	svc    *ingest.Service
	clock  Clock
	logger *zap.Logger
}

// NewRecordsHandler constructs the HTTP handler adapter.
func NewRecordsHandler(svc *ingest.Service, clock Clock, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordsHandler{svc: svc, clock: clock, logger: logger}
}

// createRecordRequest is the body of POST /api/v1/records. A zero id takes
// the next free one and an empty date means today.
type createRecordRequest struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	QuantityType string          `json:"quantity_type"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	Date         string          `json:"date"`
}

// Create validates and stores one sale record.
func (h *RecordsHandler) Create(c *gin.Context) {
	var req createRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid record payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	date := h.clock.Today()
	if req.Date != "" {
		parsed, err := civil.ParseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	rec := models.SaleRecord{
		ID:           req.ID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		QuantityType: models.QuantityType(req.QuantityType),
		SKU:          req.SKU,
		Quantity:     req.Quantity,
		CostPrice:    req.CostPrice,
		SellPrice:    req.SellPrice,
		Date:         date,
	}

	rec, err := h.svc.Create(c.Request.Context(), rec, ingest.SourceHTTP)
	if err != nil {
		var invalid *models.InvalidRecordError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  invalid.Error(),
				"field":  invalid.Field,
				"reason": invalid.Reason,
			})
			return
		}
		h.logger.Error("failed storing record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to store record"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

// List returns every stored record in entry order.
func (h *RecordsHandler) List(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load records"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "records": records})
}

type rejectedRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// Import appends the rows of an uploaded .xlsx or .csv file.
func (h *RecordsHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read upload"})
		return
	}
	defer func() { _ = file.Close() }()

	summary, err := h.svc.Import(c.Request.Context(), header.Filename, file)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "only .xlsx and .csv files are supported"})
		return
	case errors.Is(err, ingest.ErrMalformedFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("import failed", zap.String("file", header.Filename), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed", "imported": summary.Imported})
		return
	}

	rejected := make([]rejectedRow, 0, len(summary.Rejected))
	for _, r := range summary.Rejected {
		rejected = append(rejected, rejectedRow{Row: r.Row, Error: r.Err.Error()})
	}
	c.JSON(http.StatusOK, gin.H{"imported": summary.Imported, "rejected": rejected})
}
