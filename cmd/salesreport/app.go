package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/analytics"
	"github.com/mamadbah2/salesreport/internal/repository/memory"
	"github.com/mamadbah2/salesreport/internal/service/ingest"
	"github.com/mamadbah2/salesreport/internal/service/reporting"
	"github.com/mamadbah2/salesreport/internal/spreadsheet"
)

func newApp(log *zap.Logger) *cli.App {
	return &cli.App{
		Name:  "salesreport",
		Usage: "forecast, profit/loss and top products from a sales spreadsheet",
		Commands: []*cli.Command{
			{
				Name:  "report",
				Usage: "print the report for a spreadsheet of sale records",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "input .xlsx or .csv file", Required: true},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "reference date YYYY-MM-DD (default today)"},
					&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: string(analytics.ModeWindow), Usage: "forecast mode: window or regression"},
					&cli.IntFlag{Name: "top", Aliases: []string{"n"}, Value: analytics.DefaultTopN, Usage: "number of top products"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write the records and the report to this .xlsx file"},
					&cli.StringFlag{Name: "timezone", Value: "UTC", EnvVars: []string{"TIMEZONE"}, Usage: "timezone used for today"},
				},
				Action: func(c *cli.Context) error {
					return runReport(c.Context, c.App.Writer, reportArgs{
						file:     c.String("file"),
						date:     c.String("date"),
						mode:     c.String("mode"),
						top:      c.Int("top"),
						out:      c.String("out"),
						timezone: c.String("timezone"),
					}, log)
				},
			},
			{
				Name:  "template",
				Usage: "write an empty workbook with the expected header row",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "sales.xlsx", Usage: "output file"},
				},
				Action: func(c *cli.Context) error {
					data, err := spreadsheet.Template()
					if err != nil {
						return err
					}
					if err := os.WriteFile(c.String("out"), data, 0o644); err != nil {
						return fmt.Errorf("write template: %w", err)
					}
					fmt.Fprintf(c.App.Writer, "template written to %s\n", c.String("out"))
					return nil
				},
			},
		},
	}
}

type reportArgs struct {
	file     string
	date     string
	mode     string
	top      int
	out      string
	timezone string
}

func runReport(ctx context.Context, w io.Writer, args reportArgs, log *zap.Logger) error {
	mode, err := analytics.ParseForecastMode(args.mode)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(args.timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	in, err := os.Open(args.file)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = in.Close() }()

	store := memory.NewRecordStore()
	summary, err := ingest.NewService(store, nil, log.Named("ingest")).Import(ctx, args.file, in)
	if err != nil {
		return err
	}
	for _, rejected := range summary.Rejected {
		fmt.Fprintf(w, "skipped %v\n", rejected)
	}

	reports := reporting.NewService(store, nil, nil, reporting.Options{
		Mode:     mode,
		TopN:     args.top,
		Location: loc,
	}, log.Named("reporting"))

	date := reports.Today()
	if args.date != "" {
		if date, err = civil.ParseDate(args.date); err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}

	report, err := reports.Generate(ctx, date)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, reporting.FormatSummary(report))

	if args.out == "" {
		return nil
	}

	records, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	out, err := os.Create(args.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := spreadsheet.WriteXLSX(out, records, report); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
