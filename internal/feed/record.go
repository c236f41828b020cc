package feed

import "strconv"

// String returns the value for key when present, non-null and textual.
func (r Record) String(key string) *string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return &s
		}
	}
	return nil
}

// Float returns the value for key when present and numeric; numeric strings
// are parsed.
func (r Record) Float(key string) *float64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return &f
		}
	}
	return nil
}

// Int returns the value for key when present and numeric; numeric strings
// are parsed.
func (r Record) Int(key string) *int64 {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		n := int64(t)
		return &n
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}
