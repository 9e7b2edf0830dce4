package export

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"dms/internal/domain/entity"
)

var deviceHeaders = []string{
	"MAC Address", "Serial Number", "Model", "Manufacturer", "Hardware", "Firmware",
	"Condition", "Status", "Location", "Holder", "Registered At",
}

// XLSXExporter renders inventory workbooks.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// InventoryWorkbook writes a Devices sheet and a Summary sheet.
func (x *XLSXExporter) InventoryWorkbook(report *entity.InventoryReport, devices []*entity.Device) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Devices"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range deviceHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, d := range devices {
		row := i + 2
		values := []interface{}{
			d.MACAddress, d.SerialNumber, d.Model, d.Manufacturer, d.HardwareVersion, d.FirmwareVersion,
			string(d.Condition), string(d.Status), string(d.CurrentLocation), d.CurrentHolder,
			d.RegisteredAt.Format("2006-01-02 15:04"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	widths := []float64{20, 18, 16, 16, 10, 10, 12, 12, 18, 24, 18}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	if _, err := f.NewSheet("Summary"); err != nil {
		return nil, err
	}
	row := 1
	write := func(label string, value interface{}) {
		f.SetCellValue("Summary", fmt.Sprintf("A%d", row), label)
		f.SetCellValue("Summary", fmt.Sprintf("B%d", row), value)
		row++
	}
	section := func(title string, counts map[string]int) {
		row++
		f.SetCellValue("Summary", fmt.Sprintf("A%d", row), title)
		f.SetCellStyle("Summary", fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), headerStyle)
		row++
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			write(k, counts[k])
		}
	}

	write("Generated At", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	write("Total Devices", report.TotalDevices)
	section("Devices by status", report.ByStatus)
	section("Devices by location", report.ByLocation)
	section("Devices by holder", report.ByHolder)
	section("Distributions", report.Distributions)
	section("Defect reports", report.DefectReports)
	section("Return requests", report.ReturnRequests)
	f.SetColWidth("Summary", "A", "A", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
