package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/blameledger/internal/contract"
	"github.com/huangsam/blameledger/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writeWithFile handles the common pattern of opening a file, writing to it, and cleaning up.
// It accepts a writer function that takes an io.Writer and returns an error.
func writeWithFile(outputFile string, writer func(io.Writer) error, successMsg string) error {
	file, err := contract.SelectOutputFile(outputFile)
	if err != nil {
		return err
	}
	// Only close if it's not stdout
	if file != os.Stdout {
		defer func() { _ = file.Close() }()
	}

	if err := writer(file); err != nil {
		return err
	}

	if file != os.Stdout {
		_, _ = fmt.Fprintf(os.Stderr, "💾 %s to %s\n", successMsg, outputFile)
	}
	return nil
}

// writeOutput dispatches on the configured output format.
// JSON always encodes data itself; csvFn and tableFn render the other formats.
func writeOutput(cfg *contract.Config, what string, data any, csvFn, tableFn func(io.Writer) error) error {
	switch cfg.Output {
	case schema.JSONOut:
		err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, data)
		}, "Wrote JSON "+what)
		if err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, csvFn, "Wrote CSV "+what); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, tableFn, "Wrote "+what+" table"); err != nil {
			return fmt.Errorf("error writing %s table: %w", what, err)
		}
	}
	return nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// newTable creates a right-aligned table with the given headers.
func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	return table
}

// renderTable writes all rows and renders the table.
func renderTable(table *tablewriter.Table, data [][]string) error {
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// formatCount renders a count with thousands separators, dimmed when zero.
func formatCount(n int64) string {
	if n == 0 {
		return contract.ZeroColor.Sprint("0")
	}
	return humanize.Comma(n)
}

// formatSize renders a byte size for humans.
func formatSize(n int64) string {
	if n <= 0 {
		return contract.ZeroColor.Sprint("0 B")
	}
	return humanize.IBytes(uint64(n))
}

// formatShare renders a 0-1 fraction as a percentage.
func formatShare(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// formatFloat renders a float with the shortest exact representation, for CSV.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// shortHash abbreviates a commit hash for tables.
func shortHash(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}

// scopeLabel names the subtree a prefix selects.
func scopeLabel(prefix string) string {
	if prefix == "" {
		return "whole project"
	}
	return prefix
}
