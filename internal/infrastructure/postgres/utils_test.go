package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestWrapErr(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{codeUniqueViolation, domain.ErrIntegrityConflict},
		{codeForeignKeyViolation, domain.ErrIntegrityConflict},
		{codeCheckViolation, domain.ErrIntegrityConflict},
		{codeNumericOutOfRange, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			err := wrapErr("apply stock delta", &pgconn.PgError{Code: tc.code})
			assert.ErrorIs(t, err, tc.want)
			assert.Contains(t, err.Error(), "apply stock delta")
		})
	}

	plain := errors.New("conn reset")
	err := wrapErr("insert bill", plain)
	assert.ErrorIs(t, err, plain)
	assert.Equal(t, domain.ErrInternal, domain.Classify(err))
}
