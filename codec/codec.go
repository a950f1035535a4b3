// Package codec implements the JSON conventions shared by widget and
// entity serialization: a "class" discriminator, "{field}_type" converter
// keys, a forbidden-field set and typed access to decoded records.
//
// Char grids travel as one string per row; color grids as one
// comma-joined string per row.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSerial is wrapped by every serialization and deserialization error.
var ErrSerial = errors.New("codec: serialization error")

// forbiddenFields never appear in serialized records; they describe live
// object graph links, not state.
var forbiddenFields = []string{"name", "owner", "dispatcher", "parent", "terminal"}

const converterSuffix = "_type"

// Args is a decoded serialization record with converters already applied.
type Args map[string]any

// ===== DECODING =====

// Decode parses a serialized record, rejects forbidden fields and applies
// "{field}_type" converters ("int", "float", "str", "set"). Converter keys
// are consumed and do not appear in the result.
func Decode(data []byte) (Args, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerial, err)
	}
	for _, f := range forbiddenFields {
		if _, ok := raw[f]; ok {
			return nil, fmt.Errorf("%w: forbidden field %q in record", ErrSerial, f)
		}
	}
	for key, conv := range raw {
		if !strings.HasSuffix(key, converterSuffix) {
			continue
		}
		target := strings.TrimSuffix(key, converterSuffix)
		val, ok := raw[target]
		if !ok {
			continue
		}
		name, ok := conv.(string)
		if !ok {
			return nil, fmt.Errorf("%w: converter %q is not a string", ErrSerial, key)
		}
		converted, err := convert(name, val)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrSerial, target, err)
		}
		raw[target] = converted
		delete(raw, key)
	}
	return Args(raw), nil
}

func convert(name string, val any) (any, error) {
	if name == "set" {
		list, ok := val.([]any)
		if !ok {
			return nil, fmt.Errorf("set converter needs a list, got %T", val)
		}
		set := make(map[string]bool, len(list))
		for _, el := range list {
			set[fmt.Sprint(el)] = true
		}
		return set, nil
	}
	if list, ok := val.([]any); ok {
		out := make([]any, len(list))
		for i, el := range list {
			c, err := convertScalar(name, el)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	}
	return convertScalar(name, val)
}

func convertScalar(name string, val any) (any, error) {
	switch name {
	case "int":
		switch v := val.(type) {
		case float64:
			return int(v), nil
		case string:
			return strconv.Atoi(v)
		}
	case "float":
		switch v := val.(type) {
		case float64:
			return v, nil
		case string:
			return strconv.ParseFloat(v, 64)
		}
	case "str":
		return fmt.Sprint(val), nil
	}
	return nil, fmt.Errorf("cannot apply converter %q to %T", name, val)
}

// Class returns the record's class discriminator.
func (a Args) Class() (string, error) {
	return a.String("class")
}

// Has reports whether a field is present.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns a string field.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: field %q is %T, want string", ErrSerial, key, v)
	}
	return s, nil
}

// Int returns an integer field. JSON numbers and converted ints both work.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: field %q is %T, want int", ErrSerial, key, v)
}

// Float returns a float field.
func (a Args) Float(key string) (float64, error) {
	v, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("%w: field %q is %T, want float", ErrSerial, key, v)
}

// Bool returns a boolean field.
func (a Args) Bool(key string) (bool, error) {
	v, ok := a[key]
	if !ok {
		return false, fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: field %q is %T, want bool", ErrSerial, key, v)
	}
	return b, nil
}

// Strings returns a list-of-strings field.
func (a Args) Strings(key string) ([]string, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q is %T, want list", ErrSerial, key, v)
	}
	out := make([]string, len(list))
	for i, el := range list {
		s, ok := el.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q element %d is %T, want string", ErrSerial, key, i, el)
		}
		out[i] = s
	}
	return out, nil
}

// Record returns a nested record field as Args.
func (a Args) Record(key string) (Args, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q is %T, want record", ErrSerial, key, v)
	}
	return Args(m), nil
}

// Records returns a nested list-of-records field.
func (a Args) Records(key string) ([]Args, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%w: missing field %q", ErrSerial, key)
	}
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q is %T, want list", ErrSerial, key, v)
	}
	out := make([]Args, len(list))
	for i, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %q element %d is %T, want record", ErrSerial, key, i, el)
		}
		out[i] = Args(m)
	}
	return out, nil
}

// ===== ENCODING =====

// Encode marshals a record with its class discriminator. Forbidden fields
// are rejected.
func Encode(class string, fields map[string]any) ([]byte, error) {
	if class == "" {
		return nil, fmt.Errorf("%w: empty class discriminator", ErrSerial)
	}
	for _, f := range forbiddenFields {
		if _, ok := fields[f]; ok {
			return nil, fmt.Errorf("%w: forbidden field %q in record", ErrSerial, f)
		}
	}
	record := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		record[k] = v
	}
	record["class"] = class
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerial, err)
	}
	return data, nil
}

// ===== GRID WIRE FORMAT =====

// EncodeChars flattens a char grid to one string per row.
func EncodeChars(chars [][]rune) []string {
	rows := make([]string, len(chars))
	for y, row := range chars {
		rows[y] = string(row)
	}
	return rows
}

// DecodeChars rebuilds a char grid from row strings.
func DecodeChars(rows []string) [][]rune {
	chars := make([][]rune, len(rows))
	for y, row := range rows {
		chars[y] = []rune(row)
	}
	return chars
}

// EncodeColors flattens a color grid to one comma-joined string per row.
func EncodeColors(colors [][]string) []string {
	rows := make([]string, len(colors))
	for y, row := range colors {
		rows[y] = strings.Join(row, ",")
	}
	return rows
}

// DecodeColors rebuilds a color grid from comma-joined row strings.
func DecodeColors(rows []string) [][]string {
	colors := make([][]string, len(rows))
	for y, row := range rows {
		colors[y] = strings.Split(row, ",")
	}
	return colors
}
