package testutil

import (
	"strings"
	"testing"

	"lucent-shop-api/internal/model"
	"lucent-shop-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func IntPtr(v int) *int { return &v }

func StrPtr(v string) *string { return &v }

// SeedProduct inserts an active product directly through the store.
func SeedProduct(t testing.TB, store repository.Store, name string, typ model.ProductType, price int64, stock *int) *model.Product {
	t.Helper()

	p := &model.Product{
		Name:     name,
		Slug:     strings.ToLower(strings.ReplaceAll(name, " ", "-")) + "-" + uuid.NewString()[:8],
		Type:     typ,
		Price:    price,
		Stock:    stock,
		IsActive: true,
	}
	if typ == model.ProductVoicePack {
		p.DigitalFileURL = StrPtr("voice-packs/" + p.Slug + ".zip")
	}
	require.NoError(t, store.Products().Create(p), "failed to seed product")
	return p
}

// SeedVoicePack is a 5,000 KRW digital product with a stored file.
func SeedVoicePack(t testing.TB, store repository.Store) *model.Product {
	t.Helper()
	return SeedProduct(t, store, "Lucent Voice Pack", model.ProductVoicePack, 5000, nil)
}

// SeedGoods is a 15,000 KRW physical product with the given stock.
func SeedGoods(t testing.TB, store repository.Store, stock int) *model.Product {
	t.Helper()
	return SeedProduct(t, store, "Acrylic Stand", model.ProductPhysicalGoods, 15000, IntPtr(stock))
}
