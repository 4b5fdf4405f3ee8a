package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

var _ database.WaypointRepository = (*WaypointRepo)(nil)

type WaypointRepo struct {
	db *sql.DB
}

func NewWaypointRepo(db *sql.DB) *WaypointRepo {
	return &WaypointRepo{db: db}
}

func (r *WaypointRepo) GetAll(ctx context.Context) ([]domain.Waypoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, latitude, longitude FROM waypoints WHERE id > 0 ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Waypoint
	for rows.Next() {
		var w domain.Waypoint
		if err := rows.Scan(&w.ID, &w.Name, &w.Lat, &w.Lon); err != nil {
			return nil, err
		}
		results = append(results, w)
	}
	return results, rows.Err()
}
