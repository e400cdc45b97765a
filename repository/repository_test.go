package repository_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/depot"
	"github.com/syssam/depot/catalog"
	"github.com/syssam/depot/catalog/field"
	"github.com/syssam/depot/repository"
)

func TestRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	roles := repository.New(openSQLite(t), roleBinding)

	saved, err := roles.Save(ctx, &Role{Rolename: "base_user"})
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.NotEqual(t, uuid.Nil, saved.UUID)
	assert.Equal(t, "base_user", saved.Rolename)

	got, err := roles.GetByUUID(ctx, saved.UUID)
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	got, err = roles.Get(ctx, repository.Eq("rolename", "base_user"))
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	got, err = roles.GetByKey(ctx, "base_user")
	require.NoError(t, err)
	assert.Equal(t, saved.UUID, got.UUID)

	// The UUID of the caller is kept.
	id := uuid.New()
	saved, err = roles.Save(ctx, &Role{UUID: id, Rolename: "admin"})
	require.NoError(t, err)
	assert.Equal(t, id, saved.UUID)
}

func TestRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	roles := repository.New(openSQLite(t), roleBinding)

	_, err := roles.GetByUUID(ctx, uuid.New())
	assert.True(t, depot.IsNotFound(err))

	_, err = roles.Get(ctx, repository.Eq("rolename", "ghost"))
	require.True(t, depot.IsNotFound(err))
	var nf *depot.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Role", nf.Label())
	assert.Equal(t, "rolename", nf.Field())
	assert.Equal(t, "ghost", nf.Value())
}

func TestRepository_AlreadyExists(t *testing.T) {
	ctx := context.Background()
	roles := repository.New(openSQLite(t), roleBinding)

	_, err := roles.Save(ctx, &Role{Rolename: "admin"})
	require.NoError(t, err)
	_, err = roles.Save(ctx, &Role{Rolename: "admin"})
	require.Error(t, err)
	assert.True(t, depot.IsAlreadyExists(err))
	assert.Equal(t, depot.KindAlreadyExists, depot.KindOf(err))
	var ae *depot.AlreadyExistsError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Role", ae.Label)
	assert.Equal(t, "roles.rolename", ae.Detail)

	n, err := roles.Count(ctx, repository.Eq("rolename", "admin"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepository_ForeignKey(t *testing.T) {
	ctx := context.Background()
	users := repository.New(openSQLite(t), userBinding)

	_, err := users.Save(ctx, &User{Username: "tom", RoleUUID: uuid.New()})
	require.Error(t, err)
	assert.True(t, depot.IsForeignKey(err))
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	roles := repository.New(drv, roleBinding)
	users := repository.New(drv, userBinding)

	admin, err := roles.Save(ctx, &Role{Rolename: "admin"})
	require.NoError(t, err)
	base, err := roles.Save(ctx, &Role{Rolename: "base_user"})
	require.NoError(t, err)
	tom, err := users.Save(ctx, &User{Username: "tom", RoleUUID: base.UUID})
	require.NoError(t, err)

	tom.Username = "tommy"
	tom.RoleUUID = admin.UUID
	tom.ID = 100 // ignored, assigned by the store
	updated, err := users.Update(ctx, tom)
	require.NoError(t, err)
	assert.Equal(t, "tommy", updated.Username)
	assert.Equal(t, admin.UUID, updated.RoleUUID)
	assert.NotEqual(t, int64(100), updated.ID)

	tom.RoleUUID = uuid.New()
	_, err = users.Update(ctx, tom)
	assert.True(t, depot.IsForeignKey(err))

	_, err = users.Update(ctx, &User{UUID: uuid.New(), Username: "ghost", RoleUUID: admin.UUID})
	assert.True(t, depot.IsNotFound(err))
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = users.Save(ctx, &User{Username: "ann", RoleUUID: admin.UUID})
	require.NoError(t, err)
	updated.Username = "ann"
	_, err = users.Update(ctx, updated)
	assert.True(t, depot.IsAlreadyExists(err))
}

func TestRepository_Delete(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	roles := repository.New(drv, roleBinding)
	users := repository.New(drv, userBinding)

	role, err := roles.Save(ctx, &Role{Rolename: "base_user"})
	require.NoError(t, err)
	user, err := users.Save(ctx, &User{Username: "tom", RoleUUID: role.UUID})
	require.NoError(t, err)

	err = roles.Delete(ctx, role.UUID)
	require.Error(t, err)
	assert.True(t, depot.IsForeignKey(err))

	err = roles.Delete(ctx, uuid.New())
	assert.True(t, depot.IsNotFound(err))
	n, err := roles.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, users.Delete(ctx, user.UUID))
	require.NoError(t, roles.Delete(ctx, role.UUID))
	_, err = roles.GetByUUID(ctx, role.UUID)
	assert.True(t, depot.IsNotFound(err))
}

func TestRepository_Find(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	roles := repository.New(drv, roleBinding)
	users := repository.New(drv, userBinding)

	role, err := roles.Save(ctx, &Role{Rolename: "base_user"})
	require.NoError(t, err)
	for _, name := range []string{"tom", "ann", "bob"} {
		_, err := users.Save(ctx, &User{Username: name, RoleUUID: role.UUID})
		require.NoError(t, err)
	}

	found, err := users.Find(ctx, repository.Eq("role_uuid", role.UUID))
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, "tom", found[0].Username)

	found, err = users.Find(ctx, repository.Eq("username", "nobody"))
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	_, err = users.Find(ctx, repository.Eq("password", "x"))
	assert.True(t, depot.IsInvalidArgument(err))
	_, err = users.Find(ctx)
	assert.True(t, depot.IsInvalidArgument(err))

	_, err = users.Get(ctx, repository.Eq("role_uuid", role.UUID))
	assert.True(t, depot.IsNotSingular(err))

	got, err := users.Get(ctx, repository.Eq("role_uuid", role.UUID), repository.Eq("username", "ann"))
	require.NoError(t, err)
	assert.Equal(t, "ann", got.Username)

	_, err = users.Get(ctx)
	assert.True(t, depot.IsInvalidArgument(err))
}

func TestRepository_GetBatch(t *testing.T) {
	ctx := context.Background()
	roles := repository.New(openSQLite(t), roleBinding)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := roles.Save(ctx, &Role{Rolename: name})
		require.NoError(t, err)
	}

	page, err := roles.GetBatch(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].Rolename)

	page, err = roles.GetBatch(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e", page[0].Rolename)

	page, err = roles.GetBatch(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page)

	_, err = roles.GetBatch(ctx, 0, 0)
	assert.True(t, depot.IsInvalidArgument(err))
	_, err = roles.GetBatch(ctx, 1, -1)
	assert.True(t, depot.IsInvalidArgument(err))
}

func TestRepository_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	drv := openSQLite(t)
	users := repository.New(drv, userBinding)

	_, err := users.GetByKey(ctx, "tom")
	assert.True(t, depot.IsNotFound(err))

	_, err = users.Save(ctx, nil)
	assert.True(t, depot.IsInvalidArgument(err))
	_, err = users.Update(ctx, nil)
	assert.True(t, depot.IsInvalidArgument(err))

	tags := &catalog.Entity{
		Table: "tags",
		Columns: []*catalog.Column{
			{Name: "id", Type: field.TypeInt64},
			{Name: "uuid", Type: field.TypeUUID},
		},
	}
	catalog.MustNew(tags)
	type Tag struct {
		ID   int64
		UUID uuid.UUID
	}
	repo := repository.New(drv, repository.MustBind(tags,
		repository.Column("id", func(t *Tag) *int64 { return &t.ID }),
		repository.Column("uuid", func(t *Tag) *uuid.UUID { return &t.UUID }),
	))
	_, err = repo.GetByKey(ctx, "x")
	assert.True(t, depot.IsInvalidArgument(err))
}
