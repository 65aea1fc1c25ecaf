package repository

import (
	"errors"

	sq "github.com/Masterminds/squirrel"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleSchedule means a conditional transition matched no row because
	// the schedule was no longer in the expected state.
	ErrStaleSchedule = errors.New("schedule is not in the expected state")
)

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}
