// Package database holds the local sqlite mirror: snapshots of remote data
// used as a degraded-mode fallback, and an audit trail of committed plans.
// The remote spreadsheet store stays the source of truth.
package database

import (
	"database/sql"
	"encoding/json"
	stdlog "log"
	"time"

	"github.com/username/debtfolio/src/logger"
	"github.com/username/debtfolio/src/models"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Ensuring local snapshot tables", "databasePath", databasePath)
	} else {
		stdlog.Println("Ensuring local snapshot tables for:", databasePath)
	}

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS reference_snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		entities TEXT NOT NULL,
		product_types TEXT NOT NULL,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS history_snapshot (
		position INTEGER NOT NULL,
		folio TEXT NOT NULL,
		plan_date TEXT,
		debtor_name TEXT,
		line_count INTEGER,
		total_original REAL,
		total_discounted REAL,
		savings REAL,
		total_to_pay REAL,
		installment_count INTEGER,
		fetched_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS committed_plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		folio TEXT NOT NULL,
		action TEXT NOT NULL,
		debtor_name TEXT,
		line_count INTEGER,
		total_original REAL,
		total_discounted REAL,
		savings REAL,
		installment_count INTEGER,
		committed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Local snapshot tables ensured/created.")
	}
}

// SaveReferenceSnapshot stores the latest good reference lists so a later
// session can degrade to them when the remote store is unreachable.
func SaveReferenceSnapshot(refs *models.ReferenceLists) error {
	entities, err := json.Marshal(refs.Entities)
	if err != nil {
		return err
	}
	productTypes, err := json.Marshal(refs.ProductTypes)
	if err != nil {
		return err
	}
	_, err = DB.Exec(`
		INSERT INTO reference_snapshot (id, entities, product_types, fetched_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entities = excluded.entities,
			product_types = excluded.product_types,
			fetched_at = excluded.fetched_at`,
		string(entities), string(productTypes), time.Now().UTC())
	return err
}

// LoadReferenceSnapshot returns the stored reference lists, or (nil, nil)
// when no snapshot has been taken yet.
func LoadReferenceSnapshot() (*models.ReferenceLists, error) {
	var entities, productTypes string
	err := DB.QueryRow(`SELECT entities, product_types FROM reference_snapshot WHERE id = 1`).
		Scan(&entities, &productTypes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	refs := &models.ReferenceLists{}
	if err := json.Unmarshal([]byte(entities), &refs.Entities); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(productTypes), &refs.ProductTypes); err != nil {
		return nil, err
	}
	return refs, nil
}

// SaveHistorySnapshot replaces the local mirror of the remote history log.
func SaveHistorySnapshot(records []models.HistoryRecord) error {
	tx, err := DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history_snapshot`); err != nil {
		return err
	}
	now := time.Now().UTC()
	for i, r := range records {
		_, err := tx.Exec(`
			INSERT INTO history_snapshot
				(position, folio, plan_date, debtor_name, line_count, total_original,
				 total_discounted, savings, total_to_pay, installment_count, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, r.Folio, r.Date, r.DebtorName, r.LineCount, r.TotalOriginal,
			r.TotalDiscounted, r.Savings, r.TotalToPay, r.InstallmentCount, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadHistorySnapshot returns the mirrored history log in its original order.
func LoadHistorySnapshot() ([]models.HistoryRecord, error) {
	rows, err := DB.Query(`
		SELECT folio, plan_date, debtor_name, line_count, total_original,
		       total_discounted, savings, total_to_pay, installment_count
		FROM history_snapshot ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var r models.HistoryRecord
		if err := rows.Scan(&r.Folio, &r.Date, &r.DebtorName, &r.LineCount,
			&r.TotalOriginal, &r.TotalDiscounted, &r.Savings, &r.TotalToPay,
			&r.InstallmentCount); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// RecordCommit appends one audit row for a successful create or update.
func RecordCommit(action string, plan *models.Plan) error {
	_, err := DB.Exec(`
		INSERT INTO committed_plans
			(folio, action, debtor_name, line_count, total_original,
			 total_discounted, savings, installment_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.Folio, action, plan.DebtorName, plan.LineCount, plan.TotalOriginal,
		plan.TotalDiscounted, plan.Savings, plan.InstallmentCount)
	return err
}
