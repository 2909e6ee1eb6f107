package converter

import (
	"github.com/lenza-tech/matcher-backend/internal/domain"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

// ToEntity собирает доменный продукт из записи таблицы и имени категории.
// Имя категории хранится в отдельной таблице и приходит из JOIN.
func (ProductConverter) ToEntity(model *ProductModel, categoryName string) *domain.Product {
	return &domain.Product{
		ID:         model.ID,
		Name:       model.Name,
		Category:   categoryName,
		ImageURL:   model.ImageURL,
		Price:      model.Price,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
		IsArchived: model.IsArchived,
	}
}

// CategoryConverter преобразует сущности Category между domain и моделью PostgreSQL.
type CategoryConverter struct{}

func (CategoryConverter) ToEntity(model *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:        model.ID,
		Name:      model.Name,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		IsActive:  model.IsActive,
	}
}
