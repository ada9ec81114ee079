package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const duplicateObject = "42710"

// ApplyDDL выполняет результат GenerateDDL в порядке ключей.
// DDL идемпотентен (if not exists), повторные ограничения пропускаются.
func ApplyDDL(ctx context.Context, db *sql.DB, ddl map[string]string, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		sqlText := strings.TrimSpace(ddl[k])
		if sqlText == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, sqlText); err != nil {
			// pgx/stdlib возвращает *pgconn.PgError
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == duplicateObject {
				log.Infow("DDL skipped (already exists)", "step", k, "constraint", pgErr.ConstraintName, "message", strings.TrimSpace(pgErr.Message))
				continue
			}
			return fmt.Errorf("DDL apply failed at %s: %w", k, err)
		}
		log.Debugw("DDL applied", "step", k)
	}
	return nil
}
