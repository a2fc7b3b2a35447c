package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// maxBindParams is the most parameters one statement may bind; the wire
// protocol counts them in an int16.
const maxBindParams = 65535

// writePlaceholders writes "($start, ..., $start+n-1)".
func writePlaceholders(sb *strings.Builder, start, n int) {
	sb.WriteString("(")
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("$")
		sb.WriteString(strconv.Itoa(start + i))
	}
	sb.WriteString(")")
}

// jsonArg binds a JSONB value; an empty blob is stored as NULL.
func jsonArg(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
