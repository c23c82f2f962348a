// Package database provides a unified interface for connecting to download
// history backends.
//
// # Supported Backends
//
//   - PostgreSQL: using a pgx connection pool
//   - SQLite: using modernc.org/sqlite, suitable for single-node deployments
//   - none: history disabled; downloads are only logged
//
// # Usage
//
//	cfg := database.Config{
//	    Type:        "sqlite",
//	    DSN:         "zipstream.db",
//	    Tables:      zipstream.Tables{Downloads: "zipstream_downloads"},
//	    AutoMigrate: true,
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	repo := db.GetRepo()
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
