package repository

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"wifisurvey/internal/modules/survey/types"
)

//go:embed sql/list-clients.sql
var listClientsSQL string

//go:embed sql/insert-client.sql
var insertClientSQL string

//go:embed sql/get-client.sql
var getClientSQL string

//go:embed sql/list-locations.sql
var listLocationsSQL string

//go:embed sql/insert-location.sql
var insertLocationSQL string

//go:embed sql/get-location-with-client.sql
var getLocationWithClientSQL string

//go:embed sql/list-measurements.sql
var listMeasurementsSQL string

//go:embed sql/insert-measurement.sql
var insertMeasurementSQL string

//go:embed sql/dashboard-averages.sql
var dashboardAveragesSQL string

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("not found")

type SurveyRepository interface {
	ListClients() ([]types.Client, error)
	InsertClient(name, address, contact string) (int64, error)
	GetClient(id int64) (types.Client, error)
	ListLocations(clientID int64) ([]types.Location, error)
	InsertLocation(clientID int64, name string) (int64, error)
	GetLocationWithClient(id int64) (types.LocationWithClient, error)
	ListMeasurements(locationID int64) ([]types.Measurement, error)
	InsertMeasurement(locationID int64, m types.Metrics) (int64, error)
	DashboardAverages(clientID int64) ([]types.LocationAverages, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) SurveyRepository {
	return &repositoryImpl{db: db}
}

// IsConstraintViolation reports whether err came from a UNIQUE, NOT NULL or
// FOREIGN KEY constraint in the store.
func IsConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

func (r *repositoryImpl) ListClients() ([]types.Client, error) {
	rows, err := r.db.Query(listClientsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close clients rows", "error", err)
		}
	}()
	out := []types.Client{}
	for rows.Next() {
		var c types.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Contact); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) InsertClient(name, address, contact string) (int64, error) {
	var contactVal any
	if contact != "" {
		contactVal = contact
	}
	res, err := r.db.Exec(insertClientSQL, name, address, contactVal)
	if err != nil {
		return 0, fmt.Errorf("insert client: %w", err)
	}
	return res.LastInsertId()
}

func (r *repositoryImpl) GetClient(id int64) (types.Client, error) {
	var c types.Client
	err := r.db.QueryRow(getClientSQL, id).Scan(&c.ID, &c.Name, &c.Address, &c.Contact)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Client{}, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Client{}, fmt.Errorf("get client %d: %w", id, err)
	}
	return c, nil
}

func (r *repositoryImpl) ListLocations(clientID int64) ([]types.Location, error) {
	rows, err := r.db.Query(listLocationsSQL, clientID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close locations rows", "error", err)
		}
	}()
	out := []types.Location{}
	for rows.Next() {
		var l types.Location
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Name); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) InsertLocation(clientID int64, name string) (int64, error) {
	res, err := r.db.Exec(insertLocationSQL, clientID, name)
	if err != nil {
		return 0, fmt.Errorf("insert location: %w", err)
	}
	return res.LastInsertId()
}

func (r *repositoryImpl) GetLocationWithClient(id int64) (types.LocationWithClient, error) {
	var l types.LocationWithClient
	err := r.db.QueryRow(getLocationWithClientSQL, id).Scan(&l.ID, &l.Name, &l.ClientID, &l.ClientName)
	if errors.Is(err, sql.ErrNoRows) {
		return types.LocationWithClient{}, fmt.Errorf("location %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.LocationWithClient{}, fmt.Errorf("get location %d: %w", id, err)
	}
	return l, nil
}

func (r *repositoryImpl) ListMeasurements(locationID int64) ([]types.Measurement, error) {
	rows, err := r.db.Query(listMeasurementsSQL, locationID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close measurements rows", "error", err)
		}
	}()
	return scanMeasurements(rows)
}

func scanMeasurements(rows *sql.Rows) ([]types.Measurement, error) {
	out := []types.Measurement{}
	for rows.Next() {
		var m types.Measurement
		var ts, formatted sql.NullString
		if err := rows.Scan(
			&m.ID, &m.LocationID,
			&m.Signal24, &m.Signal5,
			&m.Speed24, &m.Speed5,
			&m.Interference,
			&ts, &formatted,
		); err != nil {
			return nil, err
		}
		if ts.Valid {
			t, err := time.Parse(time.RFC3339, ts.String)
			if err != nil {
				return nil, fmt.Errorf("parse timestamp %q: %w", ts.String, err)
			}
			m.Timestamp = t
		}
		m.FormattedTimestamp = formatted.String
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) InsertMeasurement(locationID int64, m types.Metrics) (int64, error) {
	res, err := r.db.Exec(insertMeasurementSQL,
		locationID,
		m.Signal24,
		m.Signal5,
		m.Speed24,
		m.Speed5,
		m.Interference,
	)
	if err != nil {
		return 0, fmt.Errorf("insert measurement: %w", err)
	}
	return res.LastInsertId()
}

func (r *repositoryImpl) DashboardAverages(clientID int64) ([]types.LocationAverages, error) {
	rows, err := r.db.Query(dashboardAveragesSQL, clientID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close dashboard rows", "error", err)
		}
	}()
	out := []types.LocationAverages{}
	for rows.Next() {
		var a types.LocationAverages
		if err := rows.Scan(
			&a.LocationName,
			&a.AvgSignal24,
			&a.AvgSignal5,
			&a.AvgSpeed24,
			&a.AvgSpeed5,
			&a.AvgInterference,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
