package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/fault"
)

// pg error codes the repositories care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// translate maps low-level store failures onto the shared taxonomy so callers
// never need to import pgx to classify an error.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fault.NotFound(fmt.Sprintf("%s: record not found", op))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fault.Wrap(fault.KindConflict, fmt.Sprintf("%s: record already exists", op), err)
		case pgForeignKeyViolation:
			return fault.Wrap(fault.KindNotFound, fmt.Sprintf("%s: referenced record missing", op), err)
		case pgCheckViolation:
			return fault.Wrap(fault.KindInvalidArgument, fmt.Sprintf("%s: constraint violated", op), err)
		}
	}
	return fault.Internal(op, err)
}
