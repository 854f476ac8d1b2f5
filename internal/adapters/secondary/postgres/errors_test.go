package postgres

import (
	"errors"
	"net"
	"syscall"
	"testing"

	apperrors "github.com/lorrc/queueing-backend/internal/core/errors"
	"github.com/stretchr/testify/assert"
)

func TestStoreErr(t *testing.T) {
	t.Run("network failures map to the unavailable sentinel", func(t *testing.T) {
		refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

		err := storeErr(refused)
		assert.ErrorIs(t, err, apperrors.ErrChangeSourceUnavailable)
	})

	t.Run("query errors pass through untouched", func(t *testing.T) {
		plain := errors.New("syntax error at or near SELECT")

		err := storeErr(plain)
		assert.Equal(t, plain, err)
		assert.NotErrorIs(t, err, apperrors.ErrChangeSourceUnavailable)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, storeErr(nil))
	})
}
