package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

var _ database.RouteRepository = (*RouteRepo)(nil)

type RouteRepo struct {
	db *sql.DB
}

func NewRouteRepo(db *sql.DB) *RouteRepo {
	return &RouteRepo{db: db}
}

func (r *RouteRepo) Insert(ctx context.Context, route *domain.Route) error {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO routes (vehicle_id, path, distance, calculated_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		route.VehicleID, pq.Array(route.Path), route.Distance, route.CalculatedAt,
	)
	return row.Scan(&route.ID)
}

func (r *RouteRepo) GetAll(ctx context.Context) ([]domain.Route, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vehicle_id, path, distance, calculated_at FROM routes ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	return scanRoutes(rows)
}

func (r *RouteRepo) GetByVehicle(ctx context.Context, query *domain.RouteQuery) ([]domain.Route, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, vehicle_id, path, distance, calculated_at FROM routes WHERE vehicle_id = $1 AND calculated_at >= $2 AND calculated_at <= $3 ORDER BY calculated_at ASC`,
		query.VehicleID, query.From, query.To,
	)
	if err != nil {
		return nil, err
	}
	return scanRoutes(rows)
}

func scanRoutes(rows *sql.Rows) ([]domain.Route, error) {
	defer func() { _ = rows.Close() }()

	var results []domain.Route
	for rows.Next() {
		var route domain.Route
		if err := rows.Scan(&route.ID, &route.VehicleID, pq.Array(&route.Path), &route.Distance, &route.CalculatedAt); err != nil {
			return nil, err
		}
		results = append(results, route)
	}
	return results, rows.Err()
}
