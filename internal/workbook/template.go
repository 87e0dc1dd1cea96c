package workbook

import (
	"fmt"
	"io"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/xuri/excelize/v2"
)

// TemplateFileName is the download name of the blank master template.
const TemplateFileName = "master_template.xlsx"

// templateExamples are the sample rows written under each template header.
var templateExamples = map[string][][]string{
	core.SheetProducts: {
		{"Barrier Cream 50ml", "CREAM-50", "1"},
		{"Nitrile Gloves (case of 6)", "GLOVES-6", "6"},
	},
	core.SheetBundles: {
		{"Starter Kit", "KIT-START", "CREAM-50", "2"},
		{"Starter Kit", "KIT-START", "GLOVES-6", "1"},
	},
	core.SheetAdditions: {
		{"CREAM-50", "SAMPLE-SACHET", "FIXED", "1"},
		{"GLOVES-6", "GLOVE-LINER", "MATCHED", ""},
	},
}

var instructions = []string{
	"Master File Instructions",
	"",
	"PRODUCTS: one row per product. Quantity_Product is the number of physical units per catalog unit.",
	"SETS: one row per component. Rows sharing a SET_SKU form one set; the first component carries the set price.",
	"SET_QUANTITY is optional and defaults to 1.",
	"ADDITION (optional): IF_SKU triggers adding THEN_ADD to the same order.",
	"TYPE FIXED adds QUANTITY units; TYPE MATCHED adds as many units as were ordered.",
	"Orange headers are required columns.",
}

type sheetSpec struct {
	name  string
	rs    core.RecordSet
	specs []core.FieldSpec
}

// WriteTemplate writes a master workbook with every sheet's headers and a
// few example rows.
func WriteTemplate(w io.Writer) error {
	return Write(w, &Master{
		Products:     core.RecordSet{Header: core.Columns(core.ProductFields), Rows: templateExamples[core.SheetProducts]},
		Bundles:      core.RecordSet{Header: core.Columns(core.BundleFields), Rows: templateExamples[core.SheetBundles]},
		Additions:    core.RecordSet{Header: core.Columns(core.AdditionFields), Rows: templateExamples[core.SheetAdditions]},
		HasAdditions: true,
	}, true)
}

// Write renders m as an xlsx workbook. With instructions set, required
// headers are highlighted and an Instructions sheet is appended.
func Write(w io.Writer, m *Master, withInstructions bool) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create required style: %w", err)
	}

	sheets := []sheetSpec{
		{core.SheetProducts, m.Products, core.ProductFields},
		{core.SheetBundles, m.Bundles, core.BundleFields},
	}
	if m.HasAdditions {
		sheets = append(sheets, sheetSpec{core.SheetAdditions, m.Additions, core.AdditionFields})
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sheet.name, err)
		}

		required := make(map[string]bool, len(sheet.specs))
		for _, spec := range sheet.specs {
			required[spec.Name] = spec.Required
		}

		for col, name := range sheet.rs.Header {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			style := headerStyle
			if withInstructions && required[name] {
				style = requiredStyle
			}
			if err := f.SetCellValue(sheet.name, cell, name); err != nil {
				return fmt.Errorf("write %s header: %w", sheet.name, err)
			}
			_ = f.SetCellStyle(sheet.name, cell, cell, style)

			colName, _ := excelize.ColumnNumberToName(col + 1)
			_ = f.SetColWidth(sheet.name, colName, colName, 22)
		}

		for r, row := range sheet.rs.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			values := make([]interface{}, len(row))
			for i, v := range row {
				values[i] = v
			}
			if err := f.SetSheetRow(sheet.name, cell, &values); err != nil {
				return fmt.Errorf("write %s row %d: %w", sheet.name, r+2, err)
			}
		}
	}

	if withInstructions {
		if _, err := f.NewSheet("Instructions"); err != nil {
			return fmt.Errorf("create instructions sheet: %w", err)
		}
		for i, text := range instructions {
			_ = f.SetCellValue("Instructions", fmt.Sprintf("A%d", i+1), text)
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
