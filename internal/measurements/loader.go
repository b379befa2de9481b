package measurements

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/spherecompare/internal/fsutil"
	"github.com/banshee-data/spherecompare/internal/monitoring"
)

const utf8BOM = "\ufeff"

// Options controls how a table is read.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// FS is the filesystem to read from. Nil means the OS filesystem.
	FS fsutil.FileSystem
}

func (o Options) comma() rune {
	if o.Comma == 0 {
		return ','
	}
	return o.Comma
}

func (o Options) fs() fsutil.FileSystem {
	if o.FS == nil {
		return fsutil.OSFileSystem{}
	}
	return o.FS
}

// Load reads the table at path. Either the whole table loads or an error is
// returned; partial results are never produced.
func Load(path string, opts Options) (*Columns, error) {
	f, err := opts.fs().Open(path)
	if err != nil {
		return nil, &AccessError{Path: path, Err: err}
	}
	defer f.Close()

	cols, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	monitoring.Debugf("loaded %d measurement rows from %s", cols.Len(), path)
	return cols, nil
}

// Read parses a table from r. The header row is matched by name, so column
// order is irrelevant and extra columns are ignored.
func Read(r io.Reader, opts Options) (*Columns, error) {
	reader := csv.NewReader(r)
	reader.Comma = opts.comma()
	// Short rows are reported per cell below rather than by the csv package.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnError{Column: RequiredColumns[0]}
	}
	if err != nil {
		return nil, &ParseError{Row: 0, Err: err}
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	indices, err := columnIndices(header)
	if err != nil {
		return nil, err
	}

	cols := &Columns{}
	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Row: row, Err: err}
		}

		var values [5]float64
		for i, name := range RequiredColumns {
			idx := indices[i]
			if idx >= len(record) {
				return nil, &ParseError{Row: row, Column: name, Err: errors.New("field missing")}
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
			if err != nil {
				return nil, &ParseError{Row: row, Column: name, Value: record[idx], Err: err}
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ParseError{Row: row, Column: name, Value: record[idx], Err: ErrNonFinite}
			}
			values[i] = v
		}
		cols.append(values)
	}

	return cols, nil
}

// columnIndices maps each required column to its position in header. A
// duplicated name resolves to its last occurrence.
func columnIndices(header []string) ([5]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[name] = i
	}

	var indices [5]int
	for i, name := range RequiredColumns {
		idx, ok := positions[name]
		if !ok {
			return indices, &MissingColumnError{Column: name, Header: header}
		}
		indices[i] = idx
	}
	return indices, nil
}

// ParseDelimiter converts a configured delimiter name into a rune. It
// accepts the literal characters as well as the spelled-out "\t".
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case ";":
		return ';', nil
	case "\t", `\t`, "tab":
		return '\t', nil
	case "|":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q (want one of ',', ';', '\\t', '|')", s)
}
