package pgdb

import (
	"context"

	"github.com/lenza-tech/matcher-backend/internal/domain"
	"github.com/lenza-tech/matcher-backend/internal/repository/pgdb/converter"
	"github.com/lenza-tech/matcher-backend/pkg/e"
	"github.com/lenza-tech/matcher-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Upsert идемпотентно создаёт или обновляет продукт по внешнему идентификатору.
// Выполняется внутри транзакции регистрации продукта.
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product, categoryID int64) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (id, name, price, category_id, image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			category_id = EXCLUDED.category_id,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
		RETURNING
			id, name, price, category_id, image_url, created_at, updated_at, is_archived;
	`

	var model converter.ProductModel
	err = tx.QueryRow(ctx, query, product.ID, product.Name, product.Price, categoryID, product.ImageURL).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.CategoryID,
			&model.ImageURL, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived,
		)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(&model, product.Category), nil
}

// GetAllProducts возвращает все неархивированные продукты каталога с именами категорий.
func (p *ProductRepo) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT pr.id, pr.name, pr.price, pr.category_id, pr.image_url,
		       pr.created_at, pr.updated_at, pr.is_archived, cat.name
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE NOT pr.is_archived
		ORDER BY pr.created_at, pr.id
	`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var model converter.ProductModel
		var categoryName string
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Price, &model.CategoryID,
			&model.ImageURL, &model.CreatedAt, &model.UpdatedAt, &model.IsArchived,
			&categoryName,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *p.conv.ToEntity(&model, categoryName))
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// Count возвращает количество неархивированных продуктов каталога.
func (p *ProductRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE NOT is_archived`).Scan(&count)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}
