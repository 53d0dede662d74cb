// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store holds the PostgreSQL-backed visitor log. Each home page
// view records the visitor's address and the time of the visit.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Visit is one row of the visitor log.
type Visit struct {
	ID        int64
	IP        string
	Path      string
	UserAgent string
	VisitedAt time.Time
}

// VisitStore handles visitor log operations. A nil *VisitStore records
// nothing.
type VisitStore struct {
	db *sql.DB
}

// NewVisitStore creates a new VisitStore.
func NewVisitStore(db *sql.DB) *VisitStore {
	return &VisitStore{db: db}
}

// Record appends a visit. Failures are logged and otherwise ignored since
// the visitor log is best-effort.
func (s *VisitStore) Record(ctx context.Context, ip, path, userAgent string) {
	if s == nil {
		return
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO visits (ip, path, user_agent)
		VALUES ($1, $2, $3)
	`, ip, path, userAgent)
	if err != nil {
		slog.Warn("failed to record visit", "ip", ip, "path", path, "error", err)
	}
}

// Count returns the number of recorded visits.
func (s *VisitStore) Count(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, nil
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM visits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visits: %w", err)
	}
	return n, nil
}

// Recent returns the most recent visits, newest first.
func (s *VisitStore) Recent(ctx context.Context, limit int) ([]Visit, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ip, path, user_agent, visited_at
		FROM visits
		ORDER BY visited_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.IP, &v.Path, &v.UserAgent, &v.VisitedAt); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
