package binance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vitos/crypto_narratives/internal/domain"
)

// decodeTable reads a JSON array of flat objects into a Table, keeping
// columns in first-seen order. Nested values are kept as compact JSON.
func decodeTable(body []byte) (domain.Table, error) {
	var table domain.Table

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return table, fmt.Errorf("decode table: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return table, decodeErrorObject(body)
	}

	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return table, fmt.Errorf("decode row: %w", err)
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '{' {
			return table, fmt.Errorf("decode row: expected object, got %v", tok)
		}

		row := make(map[string]string)
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return table, fmt.Errorf("decode key: %w", err)
			}
			key, _ := keyTok.(string)

			var v any
			if err := dec.Decode(&v); err != nil {
				return table, fmt.Errorf("decode %s: %w", key, err)
			}
			if !seen[key] {
				seen[key] = true
				table.Columns = append(table.Columns, key)
			}
			row[key] = cellString(v)
		}
		if _, err := dec.Token(); err != nil {
			return table, fmt.Errorf("decode row end: %w", err)
		}
		table.Rows = append(table.Rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return table, fmt.Errorf("decode table end: %w", err)
	}
	return table, nil
}

// decodeErrorObject turns a {"code":..,"msg":..} body into an error.
func decodeErrorObject(body []byte) error {
	var e struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Msg != "" {
		return &APIError{Code: e.Code, Message: e.Msg}
	}
	return fmt.Errorf("decode table: expected array, got %.64q", body)
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func parseMillis(s string) (time.Time, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return time.UnixMilli(int64(f)).UTC(), nil
}

// firstOf returns the first non-empty value among the given columns.
func firstOf(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := row[k]; v != "" {
			return v
		}
	}
	return ""
}
