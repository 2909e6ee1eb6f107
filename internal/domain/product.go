package domain

import "time"

// Product описывает продукт каталога
type Product struct {
	ID         string // уникальный внешний идентификатор каталога
	Name       string
	Category   string
	ImageURL   string
	Price      int64 // Цена хранится в копейках
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	IsArchived bool
}

func NewProduct(id string, name string, category string, imageURL string, price int64) *Product {
	return &Product{
		ID:       id,
		Name:     name,
		Category: category,
		ImageURL: imageURL,
		Price:    price,
	}
}
