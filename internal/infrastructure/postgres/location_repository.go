package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stocktrack-api/internal/domain/entity"
	"github.com/jhoicas/stocktrack-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)

// LocationRepo implementación de LocationRepository sobre PostgreSQL (usable
// con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

// Create persiste una ubicación.
func (r *LocationRepo) Create(loc *entity.Location) error {
	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	query := `
		INSERT INTO locations (id, name, parent_id, type, sms_code)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))`
	_, err := r.q.Exec(context.Background(), query,
		loc.ID, loc.Name, loc.ParentID, loc.Type, loc.Code,
	)
	if err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// GetByCode resuelve el código SMS de una ubicación. (nil, nil) si no existe.
func (r *LocationRepo) GetByCode(code string) (*entity.Location, error) {
	query := `
		SELECT id, name, parent_id, type, COALESCE(sms_code, '')
		FROM locations WHERE sms_code = $1`
	var l entity.Location
	err := r.q.QueryRow(context.Background(), query, code).Scan(
		&l.ID, &l.Name, &l.ParentID, &l.Type, &l.Code,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return &l, nil
}

// ListLeafCodes devuelve los códigos de las hojas del subárbol de la raíz dada.
func (r *LocationRepo) ListLeafCodes(rootCode string) ([]string, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id, sms_code FROM locations WHERE sms_code = $1
			UNION ALL
			SELECT l.id, l.sms_code FROM locations l
			JOIN subtree s ON l.parent_id = s.id
		)
		SELECT s.sms_code FROM subtree s
		WHERE s.sms_code IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM locations c WHERE c.parent_id = s.id)`
	rows, err := r.q.Query(context.Background(), query, rootCode)
	if err != nil {
		return nil, fmt.Errorf("list leaf locations: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan leaf location: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}
