package vector

import (
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// XLSXOptions configures reading a point table from a spreadsheet.
type XLSXOptions struct {
	Sheet  string // sheet name; first sheet when empty
	XField string // coordinate column headers
	YField string
	Proj4  string // CRS of the coordinates; spreadsheets carry no sidecar
}

// ReadXLSX reads a point layer from a spreadsheet. The first row is the
// header; every other row becomes one point feature with all cells kept as
// string attributes. Rows without parseable coordinates are skipped with a
// logged count.
func ReadXLSX(path string, opts XLSXOptions) (*Layer, error) {
	if opts.XField == "" || opts.YField == "" {
		return nil, eris.New("vector: xlsx input needs x_field and y_field")
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open xlsx %s", path)
	}
	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) < 2 {
		return nil, eris.Errorf("vector: xlsx %s has no data rows", path)
	}

	header := rowToStrings(sheet.Rows[0])
	xi, yi := -1, -1
	for i, h := range header {
		switch {
		case strings.EqualFold(h, opts.XField):
			xi = i
		case strings.EqualFold(h, opts.YField):
			yi = i
		}
	}
	if xi < 0 || yi < 0 {
		return nil, eris.Errorf("vector: xlsx %s missing coordinate columns %s/%s",
			path, opts.XField, opts.YField)
	}

	layer := &Layer{}
	var skipped int
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if len(cells) <= xi || len(cells) <= yi {
			skipped++
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(cells[xi]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(cells[yi]), 64)
		if errX != nil || errY != nil {
			skipped++
			continue
		}
		attrs := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(cells) {
				attrs[h] = strings.TrimSpace(cells[i])
			}
		}
		layer.Features = append(layer.Features, Feature{
			Geom:   geom.Point{X: x, Y: y},
			Fields: attrs,
		})
	}
	if skipped > 0 {
		zap.L().Debug("vector: skipped xlsx rows without coordinates",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if opts.Proj4 != "" {
		sr, err := proj.Parse(opts.Proj4)
		if err != nil {
			return nil, eris.Wrapf(err, "vector: parse proj4 %q", opts.Proj4)
		}
		layer.SR = sr
		layer.PRJ = opts.Proj4
	}
	return layer, nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("vector: xlsx sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("vector: xlsx file has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
