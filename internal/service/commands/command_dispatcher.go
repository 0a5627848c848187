package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/service/ingest"
	"github.com/mamadbah2/salesreport/internal/service/reporting"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const maxTopN = 20

// HelpText lists the chat commands.
const HelpText = "Commands:\n" +
	"/sale <qty> <cost> <sell> <name> - record a sale dated today\n" +
	"/report - today's forecast, profit and top products\n" +
	"/top [n] - best selling products by quantity\n" +
	"/help - this message"

// SaleUsage is replied when /sale arguments cannot be parsed.
const SaleUsage = "Usage: /sale <qty> <cost> <sell> <name>, e.g. /sale 3 10.50 12 Rice"

// RecordIngester stores validated records, assigning an id when it is zero.
type RecordIngester interface {
	Create(ctx context.Context, rec models.SaleRecord, source string) (models.SaleRecord, error)
}

// Reporter produces the figures replied to chat commands.
type Reporter interface {
	GenerateToday(ctx context.Context) (*models.Report, error)
	TopProducts(ctx context.Context, n int) ([]models.ProductQuantity, error)
	Today() civil.Date
}

var _ Reporter = (*reporting.Service)(nil)

// Dispatcher executes parsed commands.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	records   RecordIngester
	reporting Reporter
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(records RecordIngester, reporter Reporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:   records,
		reporting: reporter,
		logger:    logger,
	}
}

// HandleCommand runs cmd and returns the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandSale:
		record, err := s.buildSaleRecord(cmd)
		if err != nil {
			return "", err
		}
		if record, err = s.records.Create(ctx, record, ingest.SourceWhatsApp); err != nil {
			return "", err
		}
		return fmt.Sprintf("Sale #%d recorded for %s: %d %s @ %s (total %s).",
			record.ID,
			record.Date,
			record.Quantity,
			record.Name,
			record.SellPrice.StringFixed(2),
			record.Total().StringFixed(2),
		), nil
	case models.CommandReport:
		report, err := s.reporting.GenerateToday(ctx)
		if err != nil {
			return "", fmt.Errorf("generate report: %w", err)
		}
		return reporting.FormatSummary(report), nil
	case models.CommandTop:
		n, err := parseTopN(cmd.Args)
		if err != nil {
			return "", err
		}
		items, err := s.reporting.TopProducts(ctx, n)
		if err != nil {
			return "", fmt.Errorf("rank products: %w", err)
		}
		return reporting.FormatRanking(items), nil
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// buildSaleRecord parses "<qty> <cost> <sell> <name...>". The id is left
// zero for the ingester to assign.
func (s *Service) buildSaleRecord(cmd models.Command) (models.SaleRecord, error) {
	if len(cmd.Args) < 4 {
		return models.SaleRecord{}, ErrInvalidArguments
	}

	quantity, err := strconv.Atoi(cmd.Args[0])
	if err != nil {
		return models.SaleRecord{}, ErrInvalidArguments
	}

	cost, err := decimal.NewFromString(cmd.Args[1])
	if err != nil {
		return models.SaleRecord{}, ErrInvalidArguments
	}

	sell, err := decimal.NewFromString(cmd.Args[2])
	if err != nil {
		return models.SaleRecord{}, ErrInvalidArguments
	}

	return models.SaleRecord{
		Name:      strings.Join(cmd.Args[3:], " "),
		Quantity:  quantity,
		CostPrice: cost,
		SellPrice: sell,
		Date:      s.reporting.Today(),
	}, nil
}

func parseTopN(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, ErrInvalidArguments
	}
	if n > maxTopN {
		n = maxTopN
	}
	return n, nil
}
