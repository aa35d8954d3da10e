package txn

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/knitworks/floortrack-backend/internal/domain/production"
)

// MapError folds infrastructure failures into the ledger error taxonomy so
// services can retry or surface them uniformly.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var lerr *production.Error
	if errors.As(err, &lerr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return production.Wrap(production.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// A dead context never recovers; retrying only delays the caller.
		return production.Wrap(production.CodeInternal, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return production.Wrap(production.CodeConflict, op, err) // unique_violation
		case "40001", "40P01", "55P03":
			return production.Wrap(production.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return production.Wrap(production.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return production.Wrap(production.CodeRetryable, op, err)
	default:
		return production.Wrap(production.CodeInternal, op, err)
	}
}
