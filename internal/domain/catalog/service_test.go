package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memorial/internal/core/apperror"
	"memorial/internal/core/types"
	"memorial/internal/domain"
	"memorial/internal/domain/catalog"
	"memorial/internal/infrastructure/storage/docrepo"
	"memorial/internal/infrastructure/storage/memory"
)

func newService() *catalog.Service {
	store := memory.NewStore()
	return catalog.NewService(docrepo.NewCatalogRepo(store), memory.NewTxManager(store))
}

func TestCatalog_CreateListConsume(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	coffin := catalog.NewItem(catalog.TypeModel, "Oak coffin", types.MustMoney("600"))
	chapel := catalog.NewItem(catalog.TypeService, "Chapel service", types.MustMoney("400"))
	require.NoError(t, svc.Create(ctx, coffin))
	require.NoError(t, svc.Create(ctx, chapel))

	models, err := svc.List(ctx, catalog.TypeModel, domain.DefaultListFilter())
	require.NoError(t, err)
	require.Len(t, models.Items, 1)
	assert.Equal(t, "Oak coffin", models.Items[0].Name)

	require.NoError(t, svc.Consume(ctx, coffin.ID))

	_, err = svc.GetByID(ctx, coffin.ID)
	assert.True(t, apperror.IsNotFound(err))

	err = svc.RemoveItem(ctx, coffin.ID)
	assert.True(t, apperror.IsNotFound(err))

	all, err := svc.List(ctx, "", domain.DefaultListFilter())
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
}

func TestCatalog_Validation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	tests := []*catalog.Item{
		catalog.NewItem("urn-ish", "Bad type", types.MustMoney("1")),
		catalog.NewItem(catalog.TypeModel, "", types.MustMoney("1")),
		catalog.NewItem(catalog.TypeModel, "Negative", types.MustMoney("-1")),
	}
	for _, item := range tests {
		err := svc.Create(ctx, item)
		assert.True(t, apperror.IsValidation(err), "item %q: %v", item.Name, err)
	}
}
