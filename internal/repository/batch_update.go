package repository

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Таблицы, для которых допустимо пакетное изменение статуса.
const (
	TableStarTransactions = "star_transactions"
	TableRedemptions      = "redemptions"
)

var (
	// ErrUnknownTable возвращается для таблицы, не разрешённой к пакетному обновлению.
	ErrUnknownTable = errors.New("table is not batch-updatable")
	// ErrUnknownColumn возвращается для колонки, не разрешённой к пакетному обновлению.
	ErrUnknownColumn = errors.New("column is not batch-updatable")
	// ErrNoFields возвращается, если обновлять нечего.
	ErrNoFields = errors.New("no fields to update")
)

var batchTables = map[string]struct{}{
	TableStarTransactions: {},
	TableRedemptions:      {},
}

// batchColumns задаёт разрешённые колонки и тип параметра для каждой из них.
var batchColumns = map[string]string{
	"status":          "text",
	"reviewed_at":     "timestamptz",
	"reviewed_by":     "uuid",
	"parent_response": "text",
}

// buildBatchUpdate строит один UPDATE ... WHERE family_id = $1 AND id = ANY($2::uuid[]).
// Колонки идут в алфавитном порядке, чтобы запрос был детерминированным.
func buildBatchUpdate(table string, familyID uuid.UUID, ids []string, fields map[string]any) (string, []any, error) {
	if _, ok := batchTables[table]; !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownTable, table)
	}
	if len(fields) == 0 {
		return "", nil, ErrNoFields
	}

	columns := make([]string, 0, len(fields))
	for c := range fields {
		if _, ok := batchColumns[c]; !ok {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		columns = append(columns, c)
	}
	sort.Strings(columns)

	args := []any{familyID, ids}
	sets := make([]string, 0, len(columns))
	for _, c := range columns {
		args = append(args, fields[c])
		sets = append(sets, pgx.Identifier{c}.Sanitize()+" = $"+strconv.Itoa(len(args))+"::"+batchColumns[c])
	}

	query := "UPDATE " + pgx.Identifier{table}.Sanitize() +
		" SET " + strings.Join(sets, ", ") +
		" WHERE family_id = $1 AND id = ANY($2::uuid[])"

	return query, args, nil
}
