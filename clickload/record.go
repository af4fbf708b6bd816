// Copyright 2016 Gareth Watts
// Licensed under an MIT license
// See the LICENSE file for details

package clickload

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Record is a single warehouse row, mapping column names to scalar values.
//
// Values are one of string, json.Number, bool or nil once normalized by
// the SourceReader.
type Record map[string]interface{}

// numericTypes lists the database type names whose string values are
// emitted as JSON numbers.
var numericTypes = map[string]bool{
	"FIXED":    true,
	"REAL":     true,
	"DECFLOAT": true,
	"NUMBER":   true,
	"DECIMAL":  true,
	"NUMERIC":  true,
	"INT":      true,
	"INTEGER":  true,
	"BIGINT":   true,
	"FLOAT":    true,
	"DOUBLE":   true,
}

// normalizeValue converts a value scanned from the database driver into
// one of the types a Record may hold.  dbType is the driver reported
// database type name of the column, and may be empty.
func normalizeValue(dbType string, v interface{}) interface{} {
	dbType = strings.ToUpper(dbType)

	switch val := v.(type) {
	case nil:
		return nil

	case []byte:
		return normalizeString(dbType, string(val))

	case string:
		return normalizeString(dbType, val)

	case bool:
		return val

	case time.Time:
		return val.Format(time.RFC3339Nano)

	case int64:
		return json.Number(strconv.FormatInt(val, 10))

	case int32:
		return json.Number(strconv.FormatInt(int64(val), 10))

	case int:
		return json.Number(strconv.Itoa(val))

	case float64:
		return floatValue(val, 64)

	case float32:
		return floatValue(float64(val), 32)

	case json.Number:
		return val

	default:
		if s, ok := v.(interface{ String() string }); ok {
			return normalizeString(dbType, s.String())
		}
		return v
	}
}

func normalizeString(dbType, s string) interface{} {
	switch {
	case numericTypes[dbType] && isJSONNumber(s):
		return json.Number(s)

	case dbType == "BOOLEAN":
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

// floatValue returns f as a json.Number, or as a string if f cannot be
// represented in JSON (NaN and the infinities).
func floatValue(f float64, bitSize int) interface{} {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !isJSONNumber(s) {
		return s
	}
	return json.Number(s)
}

func isJSONNumber(s string) bool {
	if s == "" {
		return false
	}
	if c := s[0]; c != '-' && (c < '0' || c > '9') {
		return false
	}
	return json.Valid([]byte(s))
}
