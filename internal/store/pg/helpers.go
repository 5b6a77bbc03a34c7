package pg

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

func jsonOrEmpty(data []byte) []byte {
	if data == nil {
		return []byte("{}")
	}
	return data
}

func jsonOrNull(data json.RawMessage) interface{} {
	if data == nil {
		return nil
	}
	return []byte(data)
}

// vectorToString renders a float32 slice as a pgvector literal, e.g. "[1,0.5]".
func vectorToString(v []float32) string {
	if len(v) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(v)*10)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, []byte(fmt.Sprintf("%g", f))...)
	}
	buf = append(buf, ']')
	return string(buf)
}

// scanVector parses a pgvector column (scanned as []byte) into a float32 slice.
func scanVector(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	s := strings.TrimPrefix(string(data), "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil
		}
		out = append(out, float32(f))
	}
	return out
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
