// package repositories provides persistence layer implementations for vtx's local state.
package repositories

import (
	"database/sql"
	"fmt"
)

// requireRow turns a zero RowsAffected into a not-found error naming what was missing.
func requireRow(result sql.Result, what, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found: %s", what, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
