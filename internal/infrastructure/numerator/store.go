// Package numerator provides the PostgreSQL store behind document identifiers.
// Identifiers are derived from the numbers already persisted in each document
// table, so no separate sequence table is kept.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/numerator"
)

var _ numerator.Store = (*Store)(nil)

// Store reads the numbers of one document table.
type Store struct {
	txManager *postgres.TxManager
	table     string
}

// NewStore creates a store over table's "number" column.
func NewStore(txManager *postgres.TxManager, table string) *Store {
	return &Store{txManager: txManager, table: table}
}

// MaxSequence returns the highest numeric suffix under datePrefix.
// Suffixes that are not all digits are ignored.
func (s *Store) MaxSequence(ctx context.Context, datePrefix string) (int64, error) {
	sql := fmt.Sprintf(`
		SELECT COALESCE(MAX(substring(number FROM char_length($1) + 1)::bigint), 0)
		FROM %s
		WHERE starts_with(number, $1)
		  AND substring(number FROM char_length($1) + 1) ~ '^[0-9]{1,18}$'
	`, pgx.Identifier{s.table}.Sanitize())

	var seq int64
	if err := s.txManager.GetQuerier(ctx).QueryRow(ctx, sql, datePrefix).Scan(&seq); err != nil {
		return 0, fmt.Errorf("max sequence %s: %w", datePrefix, err)
	}
	return seq, nil
}

// Exists reports whether number is already persisted.
func (s *Store) Exists(ctx context.Context, number string) (bool, error) {
	sql := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE number = $1)`, pgx.Identifier{s.table}.Sanitize())

	var exists bool
	if err := s.txManager.GetQuerier(ctx).QueryRow(ctx, sql, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("number exists %s: %w", number, err)
	}
	return exists, nil
}
