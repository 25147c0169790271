package logger

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// maxWidth is the widest a key or value may be in a HumanOutput
const maxWidth = 30

// formatValue formats a value for human or CSV output
func formatValue(v interface{}) string {
	switch v := v.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', 6, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', 6, 32)
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string) string {
	if len(s) > maxWidth {
		return s[:maxWidth-3] + "..."
	}
	return s
}

// HumanOutput writes each dump as an aligned table
type HumanOutput struct {
	w io.Writer
}

// NewHumanOutput returns a new HumanOutput writing to w
func NewHumanOutput(w io.Writer) *HumanOutput {
	return &HumanOutput{w}
}

// WriteKVs implements the Output interface
func (h *HumanOutput) WriteKVs(keys []string, kvs map[string]interface{}) error {
	keyWidth, valWidth := 0, 0
	vals := make([]string, len(keys))
	for i, key := range keys {
		vals[i] = truncate(formatValue(kvs[key]))
		if n := len(truncate(key)); n > keyWidth {
			keyWidth = n
		}
		if n := len(vals[i]); n > valWidth {
			valWidth = n
		}
	}

	var b strings.Builder
	dashes := strings.Repeat("-", keyWidth+valWidth+7)
	b.WriteString(dashes + "\n")
	for i, key := range keys {
		fmt.Fprintf(&b, "| %-*s | %-*s |\n", keyWidth, truncate(key),
			valWidth, vals[i])
	}
	b.WriteString(dashes + "\n")

	_, err := io.WriteString(h.w, b.String())
	return err
}

// Close implements the Output interface
func (h *HumanOutput) Close() error {
	return closeWriter(h.w)
}

// CSVOutput writes each dump as a row of a CSV file. The header is the
// set of keys of the first dump; keys missing from later dumps are
// written as empty fields.
type CSVOutput struct {
	w      io.Writer
	csv    *csv.Writer
	header []string
}

// NewCSVOutput returns a new CSVOutput writing to w
func NewCSVOutput(w io.Writer) *CSVOutput {
	return &CSVOutput{w: w, csv: csv.NewWriter(w)}
}

// WriteKVs implements the Output interface
func (c *CSVOutput) WriteKVs(keys []string, kvs map[string]interface{}) error {
	if c.header == nil {
		c.header = append([]string(nil), keys...)
		if err := c.csv.Write(c.header); err != nil {
			return fmt.Errorf("writeKVs: %v", err)
		}
	}

	for _, key := range keys {
		if !contains(c.header, key) {
			return fmt.Errorf("writeKVs: key %v not in header", key)
		}
	}

	row := make([]string, len(c.header))
	for i, key := range c.header {
		if v, ok := kvs[key]; ok {
			row[i] = formatValue(v)
		}
	}
	if err := c.csv.Write(row); err != nil {
		return fmt.Errorf("writeKVs: %v", err)
	}

	c.csv.Flush()
	return c.csv.Error()
}

// Close implements the Output interface
func (c *CSVOutput) Close() error {
	c.csv.Flush()
	if err := c.csv.Error(); err != nil {
		return err
	}
	return closeWriter(c.w)
}

// JSONOutput writes each dump as a single line JSON object. Non-finite
// floats, which JSON cannot represent, are written as null.
type JSONOutput struct {
	w   io.Writer
	enc *json.Encoder
}

// NewJSONOutput returns a new JSONOutput writing to w
func NewJSONOutput(w io.Writer) *JSONOutput {
	return &JSONOutput{w: w, enc: json.NewEncoder(w)}
}

// WriteKVs implements the Output interface
func (j *JSONOutput) WriteKVs(keys []string, kvs map[string]interface{}) error {
	obj := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		v := kvs[key]
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			v = nil
		}
		obj[key] = v
	}

	if err := j.enc.Encode(obj); err != nil {
		return fmt.Errorf("writeKVs: %v", err)
	}
	return nil
}

// Close implements the Output interface
func (j *JSONOutput) Close() error {
	return closeWriter(j.w)
}

func contains(s []string, v string) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}
