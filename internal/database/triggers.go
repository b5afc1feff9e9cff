package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ChangeChannel is the NOTIFY channel the triggers publish on.
const ChangeChannel = "board_changes"

// FeedTables are the tables whose row changes reach the change feed.
var FeedTables = []string{"product_requests", "votes", "comments", "profiles"}

// NOTIFY payloads are capped at 8000 bytes; bigger rows are announced
// without their record.
const notifyFunction = `
CREATE OR REPLACE FUNCTION board_notify_change() RETURNS trigger AS $$
DECLARE
    payload text;
BEGIN
    IF TG_LEVEL = 'STATEMENT' THEN
        payload := json_build_object('table', TG_TABLE_NAME, 'type', TG_OP)::text;
    ELSE
        payload := json_build_object(
            'table', TG_TABLE_NAME,
            'type', TG_OP,
            'record', CASE WHEN TG_OP = 'DELETE' THEN NULL ELSE row_to_json(NEW) END,
            'old_record', CASE WHEN TG_OP = 'INSERT' THEN NULL ELSE row_to_json(OLD) END
        )::text;
        IF octet_length(payload) > 7900 THEN
            payload := json_build_object('table', TG_TABLE_NAME, 'type', TG_OP)::text;
        END IF;
    END IF;
    PERFORM pg_notify('` + ChangeChannel + `', payload);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;
`

// InstallTriggers creates the notify function and attaches row and truncate
// triggers to every feed table. It is idempotent.
func InstallTriggers(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting trigger install: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, notifyFunction); err != nil {
		return fmt.Errorf("error creating notify function: %w", err)
	}

	for _, table := range FeedTables {
		stmts := []string{
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %[1]s_notify_row ON %[1]s`, table),
			fmt.Sprintf(`CREATE TRIGGER %[1]s_notify_row AFTER INSERT OR UPDATE OR DELETE ON %[1]s
                FOR EACH ROW EXECUTE FUNCTION board_notify_change()`, table),
			fmt.Sprintf(`DROP TRIGGER IF EXISTS %[1]s_notify_truncate ON %[1]s`, table),
			fmt.Sprintf(`CREATE TRIGGER %[1]s_notify_truncate AFTER TRUNCATE ON %[1]s
                FOR EACH STATEMENT EXECUTE FUNCTION board_notify_change()`, table),
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("error installing triggers on %s: %w", table, err)
			}
		}
	}

	return tx.Commit()
}
