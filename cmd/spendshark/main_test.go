package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/spendshark/mockdata"
	"github.com/xuri/excelize/v2"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(args, &stdout, io.Discard)
	return stdout.String(), err
}

func TestChartsXLSXWritesWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts.xlsx")
	stdout, err := runCLI(t, "--seed", "3", "--charts", "--format", "xlsx", "--out", path)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) < 4 || sheets[0] != "Vendor Risk Distribution" {
		t.Fatalf("sheets = %v", sheets)
	}
	for cell, want := range map[string]string{"A1": "Label", "B1": "Count", "A2": "High"} {
		if got, _ := f.GetCellValue(sheets[0], cell); got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestXLSXFormatChecks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.xlsx")
	if _, err := runCLI(t, "--query", "help", "--format", "xlsx", "--out", path); err == nil {
		t.Fatal("expected --query with xlsx to fail")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("workbook created for rejected query: %v", err)
	}
	if _, err := runCLI(t, "--stats", "--format", "xlsx"); err == nil {
		t.Error("expected xlsx without --out to fail")
	}
	if _, err := runCLI(t, "--format", "yaml"); err == nil {
		t.Error("expected unknown format to fail")
	}
}

func TestQueryText(t *testing.T) {
	stdout, err := runCLI(t, "--seed", "3", "--query", "what can you do?", "--format", "text")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "I can analyze transaction risk") {
		t.Errorf("reply = %q", stdout)
	}
}

func TestStatsJSON(t *testing.T) {
	stdout, err := runCLI(t, "--seed", "3", "--invoices", "40", "--stats")
	if err != nil {
		t.Fatal(err)
	}
	var out statsOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("decode %q: %v", stdout, err)
	}
	if out.Vendors.Total != len(mockdata.VendorNames) || len(out.Sources) == 0 {
		t.Errorf("stats = %+v", out)
	}
}

func TestOutFileReceivesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables.csv")
	stdout, err := runCLI(t, "--seed", "3", "--stats", "--format", "csv", "--out", path)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), mockdata.VendorNames[0]) {
		t.Errorf("csv missing vendor rows:\n%s", raw)
	}
}

func TestDatasetDefaultJSON(t *testing.T) {
	stdout, err := runCLI(t, "--seed", "3", "--invoices", "25")
	if err != nil {
		t.Fatal(err)
	}
	var data mockdata.Dataset
	if err := json.Unmarshal([]byte(stdout), &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Invoices) != 25 {
		t.Errorf("invoices = %d, want 25", len(data.Invoices))
	}
}

func TestVersionAndHelp(t *testing.T) {
	stdout, err := runCLI(t, "--version")
	if err != nil || stdout != "spendshark "+version+"\n" {
		t.Errorf("version = %q, %v", stdout, err)
	}
	if _, err := runCLI(t, "--help"); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("help err = %v", err)
	}
}
