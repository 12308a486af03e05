package raster

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// WriteASC serializes the raster as an ESRI ASCII grid. The header carries
// the full grid transform (llcorner + cellsize) and the nodata sentinel, so
// the file reloads and re-aligns without re-deriving geometry. Values use
// %.6f, enough to round-trip FS values and class integers exactly.
func WriteASC(path string, r *Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "ncols %d\n", r.Grid.Cols)
	fmt.Fprintf(w, "nrows %d\n", r.Grid.Rows)
	fmt.Fprintf(w, "xllcorner %.6f\n", r.Grid.OriginX)
	fmt.Fprintf(w, "yllcorner %.6f\n", r.Grid.OriginY)
	fmt.Fprintf(w, "cellsize %.6f\n", r.Grid.CellSize)
	fmt.Fprintf(w, "NODATA_value %.6f\n", r.NoData)

	// ASCII grids store the top row first.
	for row := r.Grid.Rows - 1; row >= 0; row-- {
		for col := 0; col < r.Grid.Cols; col++ {
			if col > 0 {
				if err := w.WriteByte(' '); err != nil {
					return eris.Wrapf(err, "raster: write %s", path)
				}
			}
			if _, err := fmt.Fprintf(w, "%.6f", r.At(col, row)); err != nil {
				return eris.Wrapf(err, "raster: write %s", path)
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return eris.Wrapf(err, "raster: write %s", path)
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrapf(err, "raster: flush %s", path)
	}
	return nil
}

// ReadASC parses an ESRI ASCII grid written by WriteASC (or any conforming
// producer).
func ReadASC(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	header := map[string]float64{}
	keys := []string{"ncols", "nrows", "xllcorner", "yllcorner", "cellsize", "nodata_value"}
	for i := 0; i < len(keys); i++ {
		if !sc.Scan() {
			return nil, eris.Errorf("raster: %s: truncated header", path)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			return nil, eris.Errorf("raster: %s: malformed header line %q", path, sc.Text())
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: %s: header value %q", path, fields[1])
		}
		header[strings.ToLower(fields[0])] = v
	}
	for _, k := range keys {
		if _, ok := header[k]; !ok {
			return nil, eris.Errorf("raster: %s: missing header key %s", path, k)
		}
	}

	g := Grid{
		OriginX:  header["xllcorner"],
		OriginY:  header["yllcorner"],
		CellSize: header["cellsize"],
		Cols:     int(header["ncols"]),
		Rows:     int(header["nrows"]),
	}
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return nil, eris.Errorf("raster: %s: invalid grid dimensions", path)
	}

	r := New(g, header["nodata_value"])
	for row := g.Rows - 1; row >= 0; row-- {
		if !sc.Scan() {
			return nil, eris.Errorf("raster: %s: truncated data at row %d", path, row)
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != g.Cols {
			return nil, eris.Errorf("raster: %s: row has %d values, want %d", path, len(fields), g.Cols)
		}
		for col, fv := range fields {
			v, err := strconv.ParseFloat(fv, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "raster: %s: cell value %q", path, fv)
			}
			r.Set(col, row, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "raster: read %s", path)
	}
	return r, nil
}
