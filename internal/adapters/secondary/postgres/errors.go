package postgres

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
)

// storeErr maps transport-level failures to ErrChangeSourceUnavailable so
// the HTTP layer answers 503 instead of a generic 500. Query-level errors
// pass through untouched.
func storeErr(err error) error {
	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", apperrors.ErrChangeSourceUnavailable, err)
	}
	return err
}
