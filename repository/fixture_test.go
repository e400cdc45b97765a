package repository_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/catalog/field"
	"github.com/syssam/depot/dialect"
	"github.com/syssam/depot/dialect/sql"
	"github.com/syssam/depot/repository"
)

type Role struct {
	ID       int64
	UUID     uuid.UUID
	Rolename string
}

type User struct {
	ID       int64
	UUID     uuid.UUID
	Username string
	RoleUUID uuid.UUID
}

var (
	roleEntity = &catalog.Entity{
		Table: "roles",
		Columns: []*catalog.Column{
			{Name: "id", Type: field.TypeInt64},
			{Name: "uuid", Type: field.TypeUUID},
			{Name: "rolename", Type: field.TypeString, Unique: true, Natural: true},
		},
	}
	userEntity = &catalog.Entity{
		Table: "users",
		Columns: []*catalog.Column{
			{Name: "id", Type: field.TypeInt64},
			{Name: "uuid", Type: field.TypeUUID},
			{Name: "username", Type: field.TypeString, Unique: true, Natural: true},
			{Name: "role_uuid", Type: field.TypeUUID, References: &catalog.Reference{Table: "roles", OnDelete: catalog.Restrict}},
		},
	}
	_ = catalog.MustNew(roleEntity, userEntity)

	roleBinding = repository.MustBind(roleEntity,
		repository.Column("id", func(r *Role) *int64 { return &r.ID }),
		repository.Column("uuid", func(r *Role) *uuid.UUID { return &r.UUID }),
		repository.Column("rolename", func(r *Role) *string { return &r.Rolename }),
	)
	userBinding = repository.MustBind(userEntity,
		repository.Column("id", func(u *User) *int64 { return &u.ID }),
		repository.Column("uuid", func(u *User) *uuid.UUID { return &u.UUID }),
		repository.Column("username", func(u *User) *string { return &u.Username }),
		repository.Column("role_uuid", func(u *User) *uuid.UUID { return &u.RoleUUID }),
	)
)

const ddl = `
CREATE TABLE roles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT NOT NULL UNIQUE,
	rolename TEXT NOT NULL UNIQUE
);
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL UNIQUE,
	role_uuid TEXT NOT NULL REFERENCES roles(uuid) ON DELETE RESTRICT
);
`

func openSQLite(t *testing.T) *sql.Driver {
	t.Helper()
	drv, err := sql.Open(dialect.SQLite, "file:"+regexp.MustCompile(`\W`).ReplaceAllString(t.Name(), "_")+"?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	drv.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { drv.Close() })
	require.NoError(t, drv.Exec(context.Background(), ddl, []any{}, nil))
	return drv
}

func escape(query string) string {
	return regexp.QuoteMeta(query)
}
