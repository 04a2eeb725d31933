package scan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// lvmHeaderLines is the fixed header length of the LabVIEW measurement files
// written by the raster-scan procedure.
const lvmHeaderLines = 22

// lvmColumns is the expected column count: index, Vx, Vy, time, power,
// x position, y position.
const lvmColumns = 7

// LoadScanFile reads a raster-scan .lvm file and returns the unit-normalized
// measurement table. Power is converted from W to mW, raw positions are
// scaled down by 10^3, and the time column is zeroed to the first sample.
func LoadScanFile(path string) (*ScanRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scan file: %w", err)
	}
	defer f.Close()

	rec, err := ParseScan(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rec, nil
}

// ParseScan parses the whitespace-delimited scan table from r, skipping the
// fixed-length header.
func ParseScan(r io.Reader) (*ScanRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	rec := &ScanRecord{}
	line := 0
	for scanner.Scan() {
		line++
		if line <= lvmHeaderLines {
			continue
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != lvmColumns {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, lvmColumns, len(fields))
		}

		vals := make([]float64, lvmColumns)
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}

		rec.Index = append(rec.Index, int(vals[0]))
		rec.Vx = append(rec.Vx, vals[1])
		rec.Vy = append(rec.Vy, vals[2])
		rec.Time = append(rec.Time, vals[3])
		rec.PowerMW = append(rec.PowerMW, vals[4]*1e3)
		rec.XPos = append(rec.XPos, vals[5]*1e-3)
		rec.YPos = append(rec.YPos, vals[6]*1e-3)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scan table: %w", err)
	}
	if rec.Len() == 0 {
		return nil, fmt.Errorf("no samples after %d header lines", lvmHeaderLines)
	}

	// Zero the clock to the first sample.
	t0 := rec.Time[0]
	for i := range rec.Time {
		rec.Time[i] -= t0
	}

	return rec, nil
}
