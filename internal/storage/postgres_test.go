package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_Get(t *testing.T) {
	query := regexp.QuoteMeta(`SELECT value FROM cart_kv WHERE key = $1`)

	tests := map[string]struct {
		setup   func(mock pgxmock.PgxPoolIface)
		want    string
		wantErr error
	}{
		"found": {
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(query).WithArgs("k").
					WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(`{"cart":[]}`))
			},
			want: `{"cart":[]}`,
		},
		"not found": {
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(query).WithArgs("k").
					WillReturnRows(pgxmock.NewRows([]string{"value"}))
			},
			wantErr: ErrNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			tt.setup(mock)

			got, err := NewPostgres(mock, nil).Get(context.Background(), "k")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgres_GetError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT value FROM cart_kv`).WithArgs("k").
		WillReturnError(errors.New("connection reset"))

	_, err = NewPostgres(mock, nil).Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetAndDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO cart_kv`).WithArgs("k", "v").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_kv WHERE key = $1`)).WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	p := NewPostgres(mock, nil)
	require.NoError(t, p.Set(context.Background(), "k", "v"))
	require.NoError(t, p.Delete(context.Background(), "k"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO cart_kv`).WithArgs("k", "v").
		WillReturnError(errors.New("insert failed"))

	err = NewPostgres(mock, nil).Set(context.Background(), "k", "v")
	assert.ErrorContains(t, err, "upsert cart_kv")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CloseRunsHook(t *testing.T) {
	closed := false
	p := NewPostgres(nil, func() { closed = true })

	require.NoError(t, p.Close())
	assert.True(t, closed)
}
