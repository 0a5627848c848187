package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/config"
	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/service/commands"
	"github.com/mamadbah2/salesreport/internal/service/reporting"
	client "github.com/mamadbah2/salesreport/pkg/clients/whatsapp"
)

const (
	sendTimeout       = 10 * time.Second
	trackedDeliveries = 1024
)

// ErrNoRecipient is returned when a report is sent without a recipient and
// none is configured.
var ErrNoRecipient = errors.New("no report recipient")

// ErrInvalidReportDate is returned for report dates not in YYYY-MM-DD form.
var ErrInvalidReportDate = errors.New("invalid report date")

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
	SendReport(ctx context.Context, req models.SendReportRequest) error
}

// ReportGenerator builds the report pushed by SendReport.
type ReportGenerator interface {
	Generate(ctx context.Context, date civil.Date) (*models.Report, error)
	Today() civil.Date
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	reports    ReportGenerator
	deliveries *deliveryTracker
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, reports ReportGenerator, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		reports:    reports,
		deliveries: newDeliveryTracker(trackedDeliveries),
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads. Every message is
// attempted; the first failure is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	if len(payload.Entry) == 0 {
		return nil
	}

	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				s.logger.Debug("message status", zap.String("message_id", status.ID), zap.String("status", status.Status))
			}

			for _, msg := range change.Value.Messages {
				if !s.deliveries.markNew(msg.ID) {
					s.logger.Debug("skip redelivered message", zap.String("message_id", msg.ID))
					continue
				}
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.CommandText()
	if text == "" {
		s.logger.Debug("ignore unsupported message type", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, cmdErr := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	if cmdErr != nil {
		reply = replyForError(cmd, cmdErr)
		if reply == "" {
			reply = "Something went wrong, please try again later."
		} else {
			cmdErr = nil
		}
	}

	if err := s.send(ctx, msg.From, reply, false); err != nil {
		return err
	}
	return cmdErr
}

// replyForError maps user errors to a helpful reply. It returns "" for
// errors the user cannot fix.
func replyForError(cmd models.Command, err error) string {
	var invalid *models.InvalidRecordError
	switch {
	case errors.Is(err, commands.ErrUnsupportedCommand):
		return commands.HelpText
	case errors.Is(err, commands.ErrInvalidArguments) && cmd.Type == models.CommandSale:
		return commands.SaleUsage
	case errors.Is(err, commands.ErrInvalidArguments):
		return "Usage: /top [n] with n a positive number."
	case errors.As(err, &invalid):
		return fmt.Sprintf("Sale rejected: %s %s.", invalid.Field, invalid.Reason)
	}
	return ""
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

// SendReport pushes the text summary of a report. An empty date means today
// and an empty recipient means the configured one.
func (s *MetaWhatsAppService) SendReport(ctx context.Context, req models.SendReportRequest) error {
	to := req.To
	if to == "" {
		to = s.cfg.ReportRecipient
	}
	if to == "" {
		return ErrNoRecipient
	}

	date := s.reports.Today()
	if req.Date != "" {
		parsed, err := civil.ParseDate(req.Date)
		if err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidReportDate, req.Date, err)
		}
		date = parsed
	}

	report, err := s.reports.Generate(ctx, date)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	return s.send(ctx, to, reporting.FormatSummary(report), false)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	if err != nil {
		return fmt.Errorf("send message to %s: %w", to, err)
	}
	return nil
}
