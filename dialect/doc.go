// Package dialect defines the session contract shared by the repositories,
// the schema reflector and the join builder.
//
// A Driver executes single statements and hands out transactions:
//
//	drv, err := sql.Open(dialect.Postgres, "postgres://...")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	tx, err := drv.Tx(ctx)
//
// The dialect name decides identifier quoting, placeholder style and whether
// writes can use RETURNING:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
package dialect
