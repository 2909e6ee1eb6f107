package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenza-tech/matcher-backend/internal/domain"
)

func seedFixture(products []domain.Product) (*ProductUseCase, *fakeProductRepo) {
	productRepo := &fakeProductRepo{products: products}
	uc := NewProductUC(
		productRepo,
		nil, // категории не нужны до первой транзакции
		nil,
		nil,
		nil,
		nil,
		&fakeProducer{},
		nopLogger{},
	)
	return uc, productRepo
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSeedFromJSON_SkipsNonEmptyCatalog(t *testing.T) {
	uc, _ := seedFixture([]domain.Product{catalogProduct("a", "shoes")})

	seeded, err := uc.SeedFromJSON(context.Background(), "does-not-matter.json")

	require.NoError(t, err)
	assert.Zero(t, seeded)
}

func TestSeedFromJSON_MissingFile(t *testing.T) {
	uc, _ := seedFixture(nil)

	_, err := uc.SeedFromJSON(context.Background(), filepath.Join(t.TempDir(), "absent.json"))

	require.Error(t, err)
}

func TestSeedFromJSON_MalformedFile(t *testing.T) {
	uc, _ := seedFixture(nil)
	path := writeSeedFile(t, `{"not": "an array"`)

	_, err := uc.SeedFromJSON(context.Background(), path)

	require.Error(t, err)
}
