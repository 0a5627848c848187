package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/spreadsheet"
)

const sampleCSV = "ID,Name,Description,Quantity Type,SKU,Quantity,Cost Price,Selling Price,Date\n" +
	"1,A,,Dozen,,3,10,20,2026-10-16\n" +
	"2,B,,Dozen,,5,10,4,2026-10-16\n" +
	"3,A,,Dozen,,2,1,2,2026-10-19\n" +
	"4,,,Dozen,,2,1,2,2026-10-19\n"

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.xlsx")
	var buf bytes.Buffer

	err := runReport(context.Background(), &buf, reportArgs{
		file:     writeSample(t),
		date:     "2026-10-16",
		mode:     "window",
		top:      2,
		out:      out,
		timezone: "UTC",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("runReport: %v", err)
	}

	text := buf.String()
	for _, want := range []string{
		"skipped row 5",
		"Sales report 2026-10-16 (3 records)",
		"Forecast next 30 days: 4.00 (window)",
		"Profit: 30.00",
		"Loss: -30.00",
		"1. B (5)\n2. A (5)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	result, err := spreadsheet.ReadXLSX(f)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if len(result.Records) != 3 {
		t.Errorf("exported %d records, want 3", len(result.Records))
	}
}

func TestRunReportRejectsBadInput(t *testing.T) {
	args := reportArgs{file: writeSample(t), mode: "median", top: 5, timezone: "UTC"}
	if err := runReport(context.Background(), &bytes.Buffer{}, args, zap.NewNop()); err == nil {
		t.Error("expected error for unknown mode")
	}

	args = reportArgs{file: writeSample(t), date: "16/10/2026", mode: "window", top: 5, timezone: "UTC"}
	if err := runReport(context.Background(), &bytes.Buffer{}, args, zap.NewNop()); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestTemplateCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "template.xlsx")
	app := newApp(zap.NewNop())
	app.Writer = &bytes.Buffer{}

	if err := app.Run([]string{"salesreport", "template", "--out", out}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	result, err := spreadsheet.ReadXLSX(f)
	if err != nil || len(result.Records) != 0 || len(result.Rejected) != 0 {
		t.Errorf("template read back = %+v, %v", result, err)
	}
}
