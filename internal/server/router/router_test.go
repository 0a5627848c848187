package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/salesreport/internal/config"
	"github.com/mamadbah2/salesreport/internal/metrics"
	"github.com/mamadbah2/salesreport/internal/repository/memory"
	"github.com/mamadbah2/salesreport/internal/server/handlers"
	"github.com/mamadbah2/salesreport/internal/service/commands"
	"github.com/mamadbah2/salesreport/internal/service/ingest"
	"github.com/mamadbah2/salesreport/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/salesreport/internal/service/whatsapp"
	"github.com/mamadbah2/salesreport/internal/spreadsheet"
	client "github.com/mamadbah2/salesreport/pkg/clients/whatsapp"
)

type fakeClient struct {
	sent []client.SendTextMessageRequest
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	f.sent = append(f.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

type testServer struct {
	engine *gin.Engine
	store  *memory.RecordStore
	client *fakeClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewRecordStore()
	m := metrics.New()
	ingestSvc := ingest.NewService(store, m, nil)
	reportSvc := reporting.NewService(store, nil, nil, reporting.Options{Location: time.UTC, Metrics: m}, nil)

	fc := &fakeClient{}
	waCfg := config.WhatsAppConfig{VerifyToken: "verify", ReportRecipient: "224000"}
	messaging := whatsappsvc.NewMetaWhatsAppService(waCfg, fc, commands.NewService(ingestSvc, reportSvc, nil), reportSvc, nil)

	engine := New(Handlers{
		Records: handlers.NewRecordsHandler(ingestSvc, reportSvc, nil),
		Reports: handlers.NewReportHandler(reportSvc, nil),
		Webhook: handlers.NewWebhookHandler(messaging, nil),
	}, Options{AllowedOrigins: []string{"http://dashboard.test"}, Metrics: m.Handler()}, nil)

	return &testServer{engine: engine, store: store, client: fc}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

func upload(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte(content))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("missing generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	if got := s.do(req).Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestCreateRecord(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/api/v1/records", `{"name":"Rice","quantity_type":"Kilogram","quantity":3,"cost_price":"10","sell_price":12.5,"date":"2026-10-16"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["id"] != float64(1) || body["date"] != "2026-10-16" {
		t.Errorf("unexpected body %v", body)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"negative quantity", `{"name":"Rice","quantity":-1,"cost_price":1,"sell_price":2}`, http.StatusUnprocessableEntity},
		{"missing name", `{"quantity":1,"cost_price":1,"sell_price":2}`, http.StatusUnprocessableEntity},
		{"bad json", `{"name":`, http.StatusBadRequest},
		{"bad date", `{"name":"Rice","quantity":1,"date":"16/10/2026"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.postJSON("/api/v1/records", tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	if s.store.Len() != 1 {
		t.Errorf("store has %d records, want 1", s.store.Len())
	}

	list := decode(t, s.do(httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)))
	if list["count"] != float64(1) {
		t.Errorf("list = %v", list)
	}
}

func TestImportRecords(t *testing.T) {
	s := newTestServer(t)

	csv := "ID,Name,Description,Quantity Type,SKU,Quantity,Cost Price,Selling Price,Date\n" +
		"1,Rice,,Kilogram,,3,10,12,2026-10-16\n" +
		"2,Oil,,Litre,,x,5,7,2026-10-16\n"
	rec := s.do(upload(t, "sales.csv", csv))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	rejected, _ := body["rejected"].([]any)
	if body["imported"] != float64(1) || len(rejected) != 1 {
		t.Errorf("unexpected body %v", body)
	}

	if rec := s.do(upload(t, "sales.txt", csv)); rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("txt upload status = %d", rec.Code)
	}
	if rec := s.do(upload(t, "sales.xlsx", "garbage")); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed xlsx status = %d", rec.Code)
	}
	if rec := s.postJSON("/api/v1/records/import", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d", rec.Code)
	}
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.postJSON("/api/v1/records", `{"name":"A","quantity":3,"cost_price":10,"sell_price":20,"date":"2026-10-16"}`)
	s.postJSON("/api/v1/records", `{"name":"B","quantity":5,"cost_price":10,"sell_price":4,"date":"2026-10-16"}`)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/report?date=2026-10-16", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	fin, _ := body["financials"].(map[string]any)
	if fin["profit"] != "30" || fin["loss"] != "-30" || fin["earnings"] != "0" {
		t.Errorf("financials = %v", fin)
	}
	top, _ := body["top_products"].([]any)
	if len(top) != 2 {
		t.Errorf("top products = %v", top)
	}

	if rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/report?date=yesterday", nil)); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}

	export := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/report/export?date=2026-10-16", nil))
	if export.Code != http.StatusOK {
		t.Fatalf("export status = %d", export.Code)
	}
	if ct := export.Header().Get("Content-Type"); ct != spreadsheet.ContentTypeXLSX {
		t.Errorf("content type = %q", ct)
	}
	result, err := spreadsheet.ReadXLSX(bytes.NewReader(export.Body.Bytes()))
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if len(result.Records) != 2 {
		t.Errorf("exported %d records, want 2", len(result.Records))
	}

	if rec := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/reports/history", nil)); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("history without archive status = %d", rec.Code)
	}
}

func TestWebhookRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify&hub.challenge=99", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "99" {
		t.Errorf("verify = %d %q", rec.Code, rec.Body.String())
	}
	rec = s.do(httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=99", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("bad token status = %d", rec.Code)
	}

	payload := `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"messages":[{"from":"224555","id":"wamid.9","type":"text","text":{"body":"/sale 2 1 3 Sugar"}}]}}]}]}`
	if rec := s.postJSON("/webhook", payload); rec.Code != http.StatusOK {
		t.Fatalf("receive status = %d", rec.Code)
	}
	if s.store.Len() != 1 {
		t.Errorf("webhook sale not stored")
	}

	if rec := s.postJSON("/send-report", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("send-report status = %d body=%s", rec.Code, rec.Body.String())
	}
	last := s.client.sent[len(s.client.sent)-1]
	if last.To != "224000" || !strings.HasPrefix(last.Body, "Sales report") {
		t.Errorf("unexpected report message %+v", last)
	}

	if rec := s.postJSON("/send-report", `{"date":"tomorrow"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d", rec.Code)
	}
}

func TestMetricsAndCORS(t *testing.T) {
	s := newTestServer(t)
	s.postJSON("/api/v1/records", `{"name":"A","quantity":1,"cost_price":1,"sell_price":2}`)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `salesreport_records_ingested_total{source="http"} 1`) {
		t.Errorf("metrics = %d\n%s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://dashboard.test")
	if got := s.do(req).Header().Get("Access-Control-Allow-Origin"); got != "http://dashboard.test" {
		t.Errorf("allow origin = %q", got)
	}
}
