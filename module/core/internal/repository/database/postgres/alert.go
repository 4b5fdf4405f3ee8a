package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

var _ database.AlertRepository = (*AlertRepo)(nil)

type AlertRepo struct {
	db *sql.DB
}

func NewAlertRepo(db *sql.DB) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) Insert(ctx context.Context, alert *domain.Alert) error {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO alerts (vehicle_id, type, message, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		alert.VehicleID, string(alert.Type), alert.Message, alert.CreatedAt,
	)
	return row.Scan(&alert.ID)
}

func (r *AlertRepo) GetAll(ctx context.Context) ([]domain.Alert, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vehicle_id, type, message, created_at FROM alerts ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Alert
	for rows.Next() {
		var a domain.Alert
		if err := rows.Scan(&a.ID, &a.VehicleID, &a.Type, &a.Message, &a.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}
