package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dashcore/pkg/domain"

	"gopkg.in/yaml.v3"
)

// Format names a supported tabular file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile reads a dataset file. JSON and YAML files hold a mapping of
// dataset name to record list; a CSV file holds one dataset named after the
// file's base name.
func LoadFile(path string) (domain.Datasets, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Decode(format, name, bytes.NewReader(data))
}

// Decode parses r in the given format. name is only used for CSV input.
func Decode(format Format, name string, r io.Reader) (domain.Datasets, error) {
	switch format {
	case FormatJSON:
		var raw map[string][]map[string]any
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
		return fromPlain(raw, normaliseJSON), nil
	case FormatYAML:
		var raw map[string][]map[string]any
		if err := yaml.NewDecoder(r).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
		return fromPlain(raw, normaliseYAML), nil
	case FormatCSV:
		records, err := decodeCSV(r)
		if err != nil {
			return nil, err
		}
		return domain.Datasets{name: records}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func fromPlain(raw map[string][]map[string]any, norm func(any) any) domain.Datasets {
	out := make(domain.Datasets, len(raw))
	for name, rows := range raw {
		records := make([]domain.Record, len(rows))
		for i, row := range rows {
			rec := make(domain.Record, len(row))
			for k, v := range row {
				rec[k] = norm(v)
			}
			records[i] = rec
		}
		out[name] = records
	}
	return out
}

// normaliseJSON turns json.Number into int64 or float64.
func normaliseJSON(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		for k, inner := range val {
			val[k] = normaliseJSON(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normaliseJSON(inner)
		}
		return val
	default:
		return v
	}
}

// normaliseYAML widens yaml ints to int64 and keeps dates as text so records
// look the same whichever format they came from.
func normaliseYAML(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case interface{ Format(string) string }:
		return val.Format(domain.DateLayout)
	case map[string]any:
		for k, inner := range val {
			val[k] = normaliseYAML(inner)
		}
		return val
	case []any:
		for i, inner := range val {
			val[i] = normaliseYAML(inner)
		}
		return val
	default:
		return v
	}
}

func decodeCSV(r io.Reader) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	var records []domain.Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(records)+2, err)
		}
		rec := make(domain.Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[strings.TrimSpace(col)] = parseCell(row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseCell(cell string) any {
	cell = strings.TrimSpace(cell)
	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(cell); err == nil {
		return b
	}
	return cell
}
