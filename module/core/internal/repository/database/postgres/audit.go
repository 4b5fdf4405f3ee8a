package postgres

import (
	"context"
	"database/sql"

	"github.com/nandanugg/fleet-routing/module/core/domain"
	"github.com/nandanugg/fleet-routing/module/core/internal/repository/database"
)

var _ database.AuditLogRepository = (*AuditLogRepo)(nil)

type AuditLogRepo struct {
	db *sql.DB
}

func NewAuditLogRepo(db *sql.DB) *AuditLogRepo {
	return &AuditLogRepo{db: db}
}

func (r *AuditLogRepo) Insert(ctx context.Context, entry *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (vehicle_id, event_type, details, timestamp) VALUES ($1, $2, $3, $4)`,
		entry.VehicleID, string(entry.EventType), entry.Details, entry.Timestamp,
	)
	return err
}
