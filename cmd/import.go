package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

var importSheet string

var importCmd = &cobra.Command{
	Use:   "import <batch-id> <file>",
	Short: "Import an inventory spreadsheet into a batch",
	Long:  "Reads an .xlsx or .csv manifest with item, quantity, and optional unit columns and records each row as a free-text inventory entry on the batch.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		batchID, file := args[0], args[1]
		if _, err := env.Store.GetBatch(cmd.Context(), batchID); err != nil {
			return err
		}

		var rows []importRow
		switch ext := strings.ToLower(filepath.Ext(file)); ext {
		case ".xlsx":
			rows, err = readXLSX(file, importSheet)
		case ".csv":
			rows, err = readCSV(file)
		default:
			return eris.Errorf("unsupported file type %q, want .xlsx or .csv", ext)
		}
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return eris.Errorf("no inventory rows found in %s", file)
		}

		for _, row := range rows {
			line := fmt.Sprintf("%s - %s", row.Item, strconv.FormatFloat(row.Quantity, 'f', -1, 64))
			if row.Unit != "" {
				line += " " + row.Unit
			}
			if _, err := env.Store.AddTextEntry(cmd.Context(), batchID, line); err != nil {
				return err
			}
		}

		zap.L().Info("inventory imported",
			zap.String("batch_id", batchID),
			zap.String("file", file),
			zap.Int("rows", len(rows)),
		)
		return nil
	},
}

type importRow struct {
	Item     string
	Quantity float64
	Unit     string
}

// parseImportRow turns raw cell values into a row, skipping headers and
// rows without a numeric quantity.
func parseImportRow(cells []string) (importRow, bool) {
	if len(cells) < 2 {
		return importRow{}, false
	}
	item := strings.TrimSpace(cells[0])
	qty, err := strconv.ParseFloat(strings.TrimSpace(cells[1]), 64)
	if item == "" || err != nil || qty <= 0 {
		return importRow{}, false
	}
	row := importRow{Item: item, Quantity: qty}
	if len(cells) > 2 {
		row.Unit = strings.TrimSpace(cells[2])
	}
	return row, true
}

func readXLSX(path, sheetName string) ([]importRow, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	if len(wb.Sheets) == 0 {
		return nil, eris.Errorf("%s has no sheets", path)
	}

	sheet := wb.Sheets[0]
	if sheetName != "" {
		found, ok := wb.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("sheet %q not found in %s", sheetName, path)
		}
		sheet = found
	}

	var rows []importRow
	for _, r := range sheet.Rows {
		cells := make([]string, len(r.Cells))
		for j, cell := range r.Cells {
			cells[j] = cell.String()
		}
		if row, ok := parseImportRow(cells); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func readCSV(path string) ([]importRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows []importRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		if row, ok := parseImportRow(record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "xlsx sheet name (default first sheet)")
	rootCmd.AddCommand(importCmd)
}
