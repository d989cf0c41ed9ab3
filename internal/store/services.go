package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/hive/internal/models"
)

const serviceColumns = `id, project_id, service_name, owner_agent_id, ping_url, port, status,
	last_heartbeat_at, last_ping_at, last_ping_success, metadata, created_at, updated_at`

// RegisterServiceParams are the inputs for service registration.
type RegisterServiceParams struct {
	ProjectID    int64
	Name         string
	OwnerAgentID string
	PingURL      string
	Port         *int
	Metadata     string
}

// RegisterService inserts or refreshes a service. Re-registration updates the
// ping URL, owner, port and metadata and resets status to starting.
func RegisterService(db *sql.DB, p RegisterServiceParams) (*models.Service, error) {
	if p.Name == "" {
		return nil, errors.New("service name is required")
	}
	if p.PingURL == "" {
		return nil, errors.New("service ping url is required")
	}

	var service *models.Service
	err := Transact(db, func(tx *sql.Tx) error {
		if _, err := getProjectByQuerier(tx, p.ProjectID); err != nil {
			return err
		}
		now := encodeTime(time.Now())
		_, err := tx.Exec(`
			INSERT INTO services (project_id, service_name, owner_agent_id, ping_url, port, status,
				last_heartbeat_at, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'starting', ?, ?, ?, ?)
			ON CONFLICT(service_name, project_id) DO UPDATE SET
				owner_agent_id = excluded.owner_agent_id,
				ping_url = excluded.ping_url,
				port = excluded.port,
				status = 'starting',
				last_heartbeat_at = excluded.last_heartbeat_at,
				metadata = excluded.metadata,
				updated_at = excluded.updated_at
		`, p.ProjectID, p.Name, p.OwnerAgentID, p.PingURL, p.Port, now, nullStr(p.Metadata), now, now)
		if err != nil {
			return fmt.Errorf("failed to register service: %w", err)
		}
		service, err = getServiceByQuerier(tx, p.Name, p.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return service, nil
}

// GetService retrieves a service by name within a project.
func GetService(db *sql.DB, name string, projectID int64) (*models.Service, error) {
	return getServiceByQuerier(db, name, projectID)
}

func getServiceByQuerier(q Querier, name string, projectID int64) (*models.Service, error) {
	row := q.QueryRow(`SELECT `+serviceColumns+` FROM services WHERE service_name = ? AND project_id = ?`,
		name, projectID)
	svc, err := scanService(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Entity: "service", ID: name}
	}
	return svc, err
}

func scanService(s scanner) (*models.Service, error) {
	var svc models.Service
	var status string
	var port sql.NullInt64
	var lastHeartbeat, lastPing, metadata sql.NullString
	var pingSuccess int
	var createdAt, updatedAt string

	err := s.Scan(&svc.ID, &svc.ProjectID, &svc.Name, &svc.OwnerAgentID, &svc.PingURL, &port, &status,
		&lastHeartbeat, &lastPing, &pingSuccess, &metadata, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	svc.Status = models.ServiceStatus(status)
	if port.Valid {
		p := int(port.Int64)
		svc.Port = &p
	}
	svc.LastPingSuccess = pingSuccess != 0
	if metadata.Valid {
		svc.Metadata = []byte(metadata.String)
	}
	if svc.LastHeartbeatAt, err = decodeNullTime(lastHeartbeat); err != nil {
		return nil, err
	}
	if svc.LastPingAt, err = decodeNullTime(lastPing); err != nil {
		return nil, err
	}
	if svc.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	if svc.UpdatedAt, err = decodeTime(updatedAt); err != nil {
		return nil, err
	}
	return &svc, nil
}

// ListServices returns all registered services across projects.
func ListServices(db *sql.DB) ([]*models.Service, error) {
	rows, err := db.Query(`SELECT ` + serviceColumns + ` FROM services ORDER BY project_id, service_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*models.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

// HeartbeatService bumps a service's heartbeat timestamp.
func HeartbeatService(db *sql.DB, name string, projectID int64) error {
	now := encodeTime(time.Now())
	result, err := db.Exec(`
		UPDATE services SET last_heartbeat_at = ?, updated_at = ? WHERE service_name = ? AND project_id = ?
	`, now, now, name, projectID)
	if err != nil {
		return fmt.Errorf("failed to heartbeat service: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return &NotFoundError{Entity: "service", ID: name}
	}
	return nil
}

// UnregisterService removes a service.
func UnregisterService(db *sql.DB, name string, projectID int64) error {
	result, err := db.Exec(`DELETE FROM services WHERE service_name = ? AND project_id = ?`, name, projectID)
	if err != nil {
		return fmt.Errorf("failed to unregister service: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if ra == 0 {
		return &NotFoundError{Entity: "service", ID: name}
	}
	return nil
}

// ProbeResult is the outcome of one HTTP probe, applied in batch at the end
// of a sweep.
type ProbeResult struct {
	ServiceID int64
	Success   bool
	At        time.Time
}

// ApplyProbeResults commits a sweep's outcomes in a single transaction:
// last_ping_at and last_ping_success always, status flipped to up or down.
func ApplyProbeResults(db *sql.DB, results []ProbeResult) error {
	if len(results) == 0 {
		return nil
	}
	return Transact(db, func(tx *sql.Tx) error {
		for _, r := range results {
			status := models.ServiceDown
			success := 0
			if r.Success {
				status = models.ServiceUp
				success = 1
			}
			if _, err := tx.Exec(`
				UPDATE services SET last_ping_at = ?, last_ping_success = ?, status = ?, updated_at = ?
				WHERE id = ?
			`, encodeTime(r.At), success, string(status), encodeTime(r.At), r.ServiceID); err != nil {
				return fmt.Errorf("failed to apply probe result: %w", err)
			}
		}
		return nil
	})
}
