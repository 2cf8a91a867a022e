package repository

import "github.com/jhoicas/stocktrack-api/internal/domain/entity"

// LocationRepository define el puerto de persistencia de ubicaciones (DIP).
type LocationRepository interface {
	Create(loc *entity.Location) error
	// GetByCode resuelve el código SMS de una ubicación. Devuelve (nil, nil) si no existe.
	GetByCode(code string) (*entity.Location, error)
	// ListLeafCodes devuelve los códigos de las hojas bajo la ubicación raíz dada.
	ListLeafCodes(rootCode string) ([]string, error)
}
