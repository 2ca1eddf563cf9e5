package pgrepos

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/wazazi/core"
)

// trapErr maps driver-level errors to app error kinds:
// "no rows" -> the domain's notFound sentinel; connection failures ->
// core.ErrStoreUnavailable; serialization/deadlock -> core.ErrConflict.
func trapErr(err error, msg string, notFound error) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	if err == driver.ErrBadConn {
		return core.ErrStoreUnavailable
	}
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		switch {
		case pqErr.Code.Class() == "08": // connection exceptions
			return core.ErrStoreUnavailable
		case pqErr.Code == "40001" || pqErr.Code == "40P01": // serialization failure | deadlock
			return core.ErrConflict
		}
	}
	return errors.Wrap(err, msg)
}

// isFKViolation reports whether err is a foreign key violation on the given
// constraint column.
func isFKViolation(err error, column string) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == "23503" && strings.Contains(pqErr.Constraint, column)
	}
	return false
}

// orderBy renders an ORDER BY clause. Ordering fields come straight from the
// query string, so only fields present in allowed (mapped to their column) are
// rendered; anything else is dropped. fallback is used when nothing remains.
func orderBy(ordering []core.DBOrdering, allowed map[string]string, fallback core.DBOrdering) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		ord.Field = col
		parts = append(parts, ord.String())
	}
	if len(parts) == 0 {
		parts = append(parts, fallback.String())
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// where renders a WHERE clause from accumulated conditions.
func where(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
