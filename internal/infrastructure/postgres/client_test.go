package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestApplySchema(t *testing.T) {
	tests := []struct {
		name        string
		mockFn      func(mock pgxmock.PgxPoolIface)
		errContains string
	}{
		{
			name: "creates media table",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS media_objects").
					WillReturnResult(pgxmock.NewResult("CREATE", 0))
			},
		},
		{
			name: "exec error",
			mockFn: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS media_objects").
					WillReturnError(errors.New("permission denied"))
			},
			errContains: "failed to apply migration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer mock.Close()

			tt.mockFn(mock)

			err = applySchema(context.Background(), mock)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("applySchema() error = %v, should contain %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("applySchema() unexpected error = %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}
