package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"

	"orderpulse/pkg/errors"
)

// RenderTable writes a report as a terminal table.
func RenderTable(w io.Writer, title, groupLabel string, rows []Row) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "\n%s\n\n", bold(title))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{groupLabel, "Orders", "Avg Duration (min)", "SLA Breach %"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, row := range rows {
		table.Append([]string{
			row.Group,
			fmt.Sprintf("%d", row.Orders),
			fmt.Sprintf("%.2f", row.AvgDuration),
			fmt.Sprintf("%.2f", row.BreachPct),
		})
	}

	table.Render()
}

// WriteCSV writes a report as CSV with a header row.
func WriteCSV(w io.Writer, groupLabel string, rows []Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{groupLabel, "orders", "avg_duration_min", "sla_breach_pct"}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "Failed to write CSV header")
	}

	for _, row := range rows {
		record := []string{
			row.Group,
			fmt.Sprintf("%d", row.Orders),
			fmt.Sprintf("%.2f", row.AvgDuration),
			fmt.Sprintf("%.2f", row.BreachPct),
		}
		if err := writer.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrCodeExportFailed, "Failed to write CSV row")
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes a report as an Excel workbook with one sheet.
func WriteXLSX(path, title, groupLabel string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "Failed to rename sheet")
	}

	f.SetCellValue(sheet, "A1", title)
	headers := []string{groupLabel, "Orders", "Avg Duration (min)", "SLA Breach %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}

	for r, row := range rows {
		values := []interface{}{row.Group, row.Orders, row.AvgDuration, row.BreachPct}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+3)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrap(err, errors.ErrCodeExportFailed, "Failed to save workbook").
			WithContext("path", path)
	}

	return nil
}
