// Package database provides SQLite connectivity for the light bridge.
//
// The bridge keeps a single table of note, light_state_history, which is an
// audit trail of every state change a controller reports. This package only
// owns the connection and the migration runner; the history repository lives
// in the device package.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive. Each YYYYMMDD_HHMMSS_description.up.sql file
// should ship with a .down.sql so MigrateDown can reverse it during
// development.
package database
