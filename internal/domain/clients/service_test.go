package clients_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/core/apperror"
	"memorial/internal/domain"
	"memorial/internal/domain/clients"
	"memorial/internal/infrastructure/storage/docrepo"
	"memorial/internal/infrastructure/storage/memory"
)

func TestClients_CreateGetList(t *testing.T) {
	store := memory.NewStore()
	svc := clients.NewService(docrepo.NewClientRepo(store), memory.NewTxManager(store))
	ctx := context.Background()

	c := clients.NewClient("Rosa Diaz")
	c.Email = "rosa@example.com"
	require.NoError(t, svc.Create(ctx, c))

	got, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "rosa@example.com", got.Email)

	exists, err := svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	list, err := svc.List(ctx, domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)

	_, err = svc.GetByID(ctx, "missing")
	assert.True(t, apperror.IsNotFound(err))
}

func TestClients_Validation(t *testing.T) {
	store := memory.NewStore()
	svc := clients.NewService(docrepo.NewClientRepo(store), memory.NewTxManager(store))

	bad := clients.NewClient("")
	bad.Email = "not-an-email"

	err := svc.Create(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
	assert.Equal(t, 0, store.Count(docrepo.CollectionClients))
}

func TestClients_NormalizesOnCreate(t *testing.T) {
	store := memory.NewStore()
	svc := clients.NewService(docrepo.NewClientRepo(store), memory.NewTxManager(store))
	ctx := context.Background()

	c := clients.NewClient("  Rosa Diaz ")
	c.Email = "Rosa@Example.com"
	require.NoError(t, svc.Create(ctx, c))

	got, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rosa Diaz", got.Name)
	assert.Equal(t, "rosa@example.com", got.Email)
}
