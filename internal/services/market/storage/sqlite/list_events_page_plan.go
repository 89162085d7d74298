package sqlite

import (
	"fmt"

	"github.com/louisbranch/tollgate.space/internal/services/market/core/filter"
)

type listEventsPageSQLPlan struct {
	whereClause string
	params      []any
	limitClause string
}

// buildListEventsPageSQLPlan fetches one row past the page so the caller can
// tell whether a next page exists.
func buildListEventsPageSQLPlan(afterSeq uint64, pageSize int, cond filter.SQLCondition) listEventsPageSQLPlan {
	whereClause := "seq > ?"
	params := []any{int64(afterSeq)}
	if cond.Clause != "" {
		whereClause += " AND " + cond.Clause
		params = append(params, cond.Params...)
	}
	return listEventsPageSQLPlan{
		whereClause: whereClause,
		params:      params,
		limitClause: fmt.Sprintf("LIMIT %d", pageSize+1),
	}
}
