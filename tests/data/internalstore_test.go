package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/chitty/internal/models"
)

func TestInternalStore_UserRoundTrip(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	user := &models.InternalUser{
		UserID:       "ravi",
		Email:        "ravi@example.com",
		PasswordHash: "$2a$10$fakehashforpersistence",
		Role:         models.RoleUser,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, store.SaveUser(ctx, user))

	got, err := store.GetUser(ctx, "ravi")
	require.NoError(t, err)
	assert.Equal(t, "ravi", got.UserID)
	assert.Equal(t, "ravi@example.com", got.Email)
	assert.Equal(t, "$2a$10$fakehashforpersistence", got.PasswordHash, "hash must survive verbatim")
	assert.Equal(t, models.RoleUser, got.Role)
	assert.False(t, got.ModifiedAt.IsZero(), "save stamps modified_at")
}

func TestInternalStore_GetUserByEmail(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	require.NoError(t, store.SaveUser(ctx, &models.InternalUser{
		UserID: "ravi", Email: "ravi@example.com", PasswordHash: "h", Role: models.RoleUser,
	}))

	got, err := store.GetUserByEmail(ctx, "ravi@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ravi", got.UserID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.Error(t, err)
}

func TestInternalStore_MissingUser(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()

	_, err := store.GetUser(testContext(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestInternalStore_UpdatePreservesCreatedAt(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	require.NoError(t, store.SaveUser(ctx, &models.InternalUser{
		UserID: "ravi", Email: "v1@example.com", PasswordHash: "h", Role: models.RoleUser,
	}))

	first, err := store.GetUser(ctx, "ravi")
	require.NoError(t, err)

	require.NoError(t, store.SaveUser(ctx, &models.InternalUser{
		UserID: "ravi", Email: "v2@example.com", PasswordHash: "h", Role: models.RoleAdmin,
	}))

	second, err := store.GetUser(ctx, "ravi")
	require.NoError(t, err)
	assert.Equal(t, "v2@example.com", second.Email)
	assert.Equal(t, models.RoleAdmin, second.Role)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Second,
		"upsert must not reset created_at")
}

func TestInternalStore_ListAndDeleteUsers(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	for _, id := range []string{"ravi", "meena", "arun"} {
		require.NoError(t, store.SaveUser(ctx, &models.InternalUser{
			UserID: id, PasswordHash: "h", Role: models.RoleUser,
		}))
	}

	ids, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "meena")

	require.NoError(t, store.DeleteUser(ctx, "meena"))

	ids, err = store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.NotContains(t, ids, "meena")
}

func TestInternalStore_UserKVVersioning(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	require.NoError(t, store.SetUserKV(ctx, "ravi", "display_currency", "INR"))

	kv, err := store.GetUserKV(ctx, "ravi", "display_currency")
	require.NoError(t, err)
	assert.Equal(t, "INR", kv.Value)
	assert.Equal(t, 1, kv.Version)

	require.NoError(t, store.SetUserKV(ctx, "ravi", "display_currency", "AUD"))

	kv, err = store.GetUserKV(ctx, "ravi", "display_currency")
	require.NoError(t, err)
	assert.Equal(t, "AUD", kv.Value)
	assert.Equal(t, 2, kv.Version, "rewrite bumps the version")
}

func TestInternalStore_DeleteUserCascadesKV(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	require.NoError(t, store.SaveUser(ctx, &models.InternalUser{
		UserID: "ravi", PasswordHash: "h", Role: models.RoleUser,
	}))
	require.NoError(t, store.SetUserKV(ctx, "ravi", "display_currency", "INR"))
	require.NoError(t, store.SetUserKV(ctx, "ravi", "reminder_day", "5"))

	require.NoError(t, store.DeleteUser(ctx, "ravi"))

	kvs, err := store.ListUserKV(ctx, "ravi")
	require.NoError(t, err)
	assert.Empty(t, kvs, "user deletion must drop their KV entries")
}

func TestInternalStore_SystemKV(t *testing.T) {
	mgr := testManager(t)
	store := mgr.InternalStore()
	ctx := testContext()

	// Missing keys read as empty, not as an error
	val, err := store.GetSystemKV(ctx, "chitty_schema_version")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, store.SetSystemKV(ctx, "chitty_schema_version", "1"))

	val, err = store.GetSystemKV(ctx, "chitty_schema_version")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	require.NoError(t, store.SetSystemKV(ctx, "chitty_schema_version", "2"))

	val, err = store.GetSystemKV(ctx, "chitty_schema_version")
	require.NoError(t, err)
	assert.Equal(t, "2", val)
}
