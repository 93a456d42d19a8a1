package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrMissingIdentifier = errors.New("missing required identifier")
	ErrInvalidStatus     = errors.New("invalid problem status")
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrNotFound          = errors.New("not found")
)

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingIdentifier, field)
}

// isForeignKeyViolation reports whether err is a Postgres 23503, which the
// stores surface when a referenced problem or company does not exist.
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
