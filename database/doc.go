// Package database selects and connects the document backend of pixo.
//
// Every backend stores each collection as one whole document, keyed by the
// collection's document name.
//
// # Supported Backends
//
//   - file: one JSON file per collection in a directory (see package jsonfile)
//   - sqlite: one row per collection in a table, using modernc.org/sqlite
//   - postgres: one row per collection in a table, using a pgx connection pool
//
// # Usage
//
//	cfg := database.Config{
//	    Type:  "sqlite",
//	    DSN:   "pixo.db",
//	    Table: "pixo_documents",
//	}
//
//	db, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	svc, err := pixo.NewService(pixo.ServiceConfig{Documents: db.Documents(), ...})
//
// Open connects, runs migrations and validates the schema. Connect only
// connects, leaving Migrate and Validate to the caller.
package database
