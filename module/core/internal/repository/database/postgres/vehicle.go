package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

var _ database.VehicleRepository = (*VehicleRepo)(nil)

const vehicleColumns = `id, name, license_plate, model, year, status, last_location, last_seen`

type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var v domain.Vehicle
	var lastLocation sql.NullString
	var lastSeen sql.NullTime
	if err := row.Scan(&v.ID, &v.Name, &v.LicensePlate, &v.Model, &v.Year, &v.Status, &lastLocation, &lastSeen); err != nil {
		return nil, err
	}
	v.LastLocation = lastLocation.String
	v.LastSeen = lastSeen.Time
	return &v, nil
}

func (r *VehicleRepo) GetAll(ctx context.Context) ([]domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var vehicles []domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, rows.Err()
}

func (r *VehicleRepo) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)

	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("vehicle %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	return v, nil
}

func (r *VehicleRepo) Update(ctx context.Context, v *domain.Vehicle) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE vehicles
		 SET name = $2, license_plate = $3, model = $4, year = $5, status = $6, last_location = $7, last_seen = $8
		 WHERE id = $1`,
		v.ID, v.Name, v.LicensePlate, v.Model, v.Year, v.Status, v.LastLocation, v.LastSeen,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vehicle %s: %w", v.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *VehicleRepo) Delete(ctx context.Context, id string, beforeCommit func(ctx context.Context) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("vehicle %s: %w", id, domain.ErrNotFound)
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
