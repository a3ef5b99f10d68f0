package report

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// sheetNameLimit is the xlsx format's sheet-name length cap.
const sheetNameLimit = 31

// placeholderSheet is written to workbooks that ended up with no content
// before they are removed.
const placeholderSheet = "nothing_to_report"

// Workbook accumulates report sheets and writes them out on Close. A
// workbook that never received a sheet leaves nothing on disk: either the
// file has real content or it does not exist.
type Workbook struct {
	path   string
	file   *xlsx.File
	sheets int
}

// NewWorkbook creates a workbook that will be written to path.
func NewWorkbook(path string) *Workbook {
	return &Workbook{path: path, file: xlsx.NewFile()}
}

// Path returns the workbook's destination path.
func (w *Workbook) Path() string {
	return w.path
}

// SheetCount returns the number of sheets added so far.
func (w *Workbook) SheetCount() int {
	return w.sheets
}

// AddSheet appends a sheet with a header row followed by data rows.
func (w *Workbook) AddSheet(name string, header []string, rows [][]string) error {
	if len(name) > sheetNameLimit {
		name = name[:sheetNameLimit]
	}

	sheet, err := w.file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %q", name)
	}

	writeRow(sheet, header)
	for _, cells := range rows {
		writeRow(sheet, cells)
	}

	w.sheets++
	return nil
}

func writeRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

// Close persists the workbook. An empty workbook is saved with a placeholder
// sheet and then deleted, so no empty artifact survives.
func (w *Workbook) Close() error {
	if w.sheets == 0 {
		if _, err := w.file.AddSheet(placeholderSheet); err != nil {
			return eris.Wrap(err, "report: add placeholder sheet")
		}
		if err := w.file.Save(w.path); err != nil {
			return eris.Wrapf(err, "report: save %s", w.path)
		}
		if err := os.Remove(w.path); err != nil {
			return eris.Wrapf(err, "report: remove empty %s", w.path)
		}
		return nil
	}

	if err := w.file.Save(w.path); err != nil {
		return eris.Wrapf(err, "report: save %s", w.path)
	}
	return nil
}
