package repository

import "github.com/jhoicas/stocktrack-api/internal/domain/entity"

// ProductRepository define el puerto de persistencia del catálogo de productos.
type ProductRepository interface {
	Create(p *entity.Product) error
	// GetByCode resuelve el código SMS de un producto. Devuelve (nil, nil) si no existe.
	GetByCode(code string) (*entity.Product, error)
	List() ([]*entity.Product, error)
}
