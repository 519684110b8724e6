package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// Schema statements are written in the portable subset the three
// supported drivers share, keyed so Migrate can log progress. Timestamps
// are stored as UTC datetimes; see internal/clock for the conversion
// contract.
var schema = []struct {
	name string
	stmt string
}{
	{"usergroups", `
		CREATE TABLE IF NOT EXISTS usergroups (
			id INTEGER PRIMARY KEY,
			description VARCHAR(200) NOT NULL
		)`},
	{"permissions", `
		CREATE TABLE IF NOT EXISTS permissions (
			id INTEGER PRIMARY KEY,
			url VARCHAR(250) NOT NULL
		)`},
	{"usergroup_permission_tie", `
		CREATE TABLE IF NOT EXISTS usergroup_permission_tie (
			usergroup_id INTEGER NOT NULL,
			permission_id INTEGER NOT NULL,
			PRIMARY KEY (usergroup_id, permission_id)
		)`},
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			name VARCHAR(120) NOT NULL UNIQUE,
			email VARCHAR(250) NOT NULL,
			password VARCHAR(200) NOT NULL,
			usergroup_id INTEGER NOT NULL,
			valid_id INTEGER NOT NULL DEFAULT 1,
			create_time TIMESTAMP NOT NULL
		)`},
	{"project_status", `
		CREATE TABLE IF NOT EXISTS project_status (
			id INTEGER PRIMARY KEY,
			description VARCHAR(120) NOT NULL
		)`},
	{"projects", `
		CREATE TABLE IF NOT EXISTS projects (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			tt_number INTEGER,
			office_serial VARCHAR(120),
			description VARCHAR(500),
			notes TEXT,
			status_id INTEGER NOT NULL DEFAULT 2
		)`},
	{"item_types", `
		CREATE TABLE IF NOT EXISTS item_types (
			id INTEGER PRIMARY KEY,
			description VARCHAR(200) NOT NULL,
			valid_id INTEGER NOT NULL DEFAULT 1
		)`},
	{"item_rates", `
		CREATE TABLE IF NOT EXISTS item_rates (
			id INTEGER PRIMARY KEY,
			description VARCHAR(200) NOT NULL,
			fee_per_hour DECIMAL(10,2) NOT NULL DEFAULT 0,
			valid_id INTEGER NOT NULL DEFAULT 1
		)`},
	{"action_items", `
		CREATE TABLE IF NOT EXISTS action_items (
			id INTEGER PRIMARY KEY,
			name VARCHAR(250) NOT NULL,
			project_id INTEGER NOT NULL,
			type_id INTEGER NOT NULL,
			rate_id INTEGER NOT NULL,
			valid_id INTEGER NOT NULL DEFAULT 1
		)`},
	{"phases", `
		CREATE TABLE IF NOT EXISTS phases (
			id INTEGER PRIMARY KEY,
			project_id INTEGER NOT NULL,
			number INTEGER NOT NULL,
			UNIQUE (project_id, number)
		)`},
	{"time_records", `
		CREATE TABLE IF NOT EXISTS time_records (
			id INTEGER PRIMARY KEY,
			action_item_id INTEGER NOT NULL,
			project_id INTEGER NOT NULL,
			phase_id INTEGER NOT NULL,
			start TIMESTAMP NOT NULL,
			stop TIMESTAMP
		)`},
	{"online_sessions", `
		CREATE TABLE IF NOT EXISTS online_sessions (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL UNIQUE,
			session_id VARCHAR(64) NOT NULL UNIQUE,
			time_record_id INTEGER,
			viewing_project_id INTEGER,
			create_time TIMESTAMP NOT NULL
		)`},
}

var seed = []string{
	`INSERT INTO project_status (id, description) VALUES (1, 'Closed')`,
	`INSERT INTO project_status (id, description) VALUES (2, 'Active')`,
}

// Migrate creates any missing tables and seeds the status labels.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, s := range schema {
		if _, err := db.ExecContext(ctx, s.stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", s.name, err)
		}
	}
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM project_status`); err != nil {
		return fmt.Errorf("failed to check seed state: %w", err)
	}
	if n == 0 {
		for _, stmt := range seed {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to seed project_status: %w", err)
			}
		}
		log.Printf("seeded project_status labels")
	}
	return nil
}
