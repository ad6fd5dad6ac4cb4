package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const viewsSchema = `
CREATE TABLE IF NOT EXISTS article_views (
	permalink  TEXT PRIMARY KEY,
	views      INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS private_access (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	scope       TEXT NOT NULL,
	permalink   TEXT,
	client_ip   TEXT,
	user_agent  TEXT,
	accessed_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS gate_grants (
	session_id TEXT NOT NULL,
	grant_key  TEXT NOT NULL,
	auth       TEXT NOT NULL,
	expiry     INTEGER NOT NULL,
	PRIMARY KEY (session_id, grant_key)
);`

// PrivateAccess is one successful unlock of a private post or the private page.
type PrivateAccess struct {
	Scope      string    `json:"scope"`
	Permalink  string    `json:"permalink,omitempty"`
	ClientIP   string    `json:"clientIp"`
	UserAgent  string    `json:"userAgent"`
	AccessedAt time.Time `json:"accessedAt"`
}

// ViewStore keeps article view counts, the private access log and the unlock
// grants of each browser session in sqlite.
type ViewStore struct {
	db         *sql.DB
	maxTracked int
}

func OpenViewStore(path string, maxTracked int) (*ViewStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(viewsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &ViewStore{db: db, maxTracked: maxTracked}, nil
}

func (s *ViewStore) Close() error {
	return s.db.Close()
}

// Record adds a view and trims the table to the most viewed articles.
func (s *ViewStore) Record(ctx context.Context, permalink string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO article_views (permalink, views, updated_at) VALUES (?, 1, ?)
		ON CONFLICT(permalink) DO UPDATE SET views = views + 1, updated_at = excluded.updated_at
	`, permalink, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("record view: %w", err)
	}

	if s.maxTracked > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM article_views WHERE permalink NOT IN (
				SELECT permalink FROM article_views ORDER BY views DESC, updated_at DESC LIMIT ?
			)`, s.maxTracked)
		if err != nil {
			return 0, fmt.Errorf("trim views: %w", err)
		}
	}

	var views int64
	err = tx.QueryRowContext(ctx, `SELECT views FROM article_views WHERE permalink = ?`, permalink).Scan(&views)
	if err == sql.ErrNoRows {
		views = 0
	} else if err != nil {
		return 0, fmt.Errorf("read views: %w", err)
	}
	return views, tx.Commit()
}

// Counts returns views per permalink.
func (s *ViewStore) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT permalink, views FROM article_views`)
	if err != nil {
		return nil, fmt.Errorf("query views: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var permalink string
		var views int64
		if err := rows.Scan(&permalink, &views); err != nil {
			return nil, err
		}
		counts[permalink] = views
	}
	return counts, rows.Err()
}

func (s *ViewStore) RecordPrivateAccess(ctx context.Context, a PrivateAccess) error {
	if a.AccessedAt.IsZero() {
		a.AccessedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO private_access (scope, permalink, client_ip, user_agent, accessed_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.Scope, a.Permalink, a.ClientIP, a.UserAgent, a.AccessedAt.UTC())
	if err != nil {
		return fmt.Errorf("record private access: %w", err)
	}
	return nil
}

// RecentPrivateAccess returns the latest unlocks, newest first.
func (s *ViewStore) RecentPrivateAccess(ctx context.Context, limit int) ([]PrivateAccess, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT scope, COALESCE(permalink, ''), COALESCE(client_ip, ''), COALESCE(user_agent, ''), accessed_at
		FROM private_access ORDER BY accessed_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query private access: %w", err)
	}
	defer rows.Close()

	out := []PrivateAccess{}
	for rows.Next() {
		var a PrivateAccess
		if err := rows.Scan(&a.Scope, &a.Permalink, &a.ClientIP, &a.UserAgent, &a.AccessedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveGrant stores the grant of one session under key, replacing an older one.
func (s *ViewStore) SaveGrant(ctx context.Context, sessionID, key string, g Grant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO gate_grants (session_id, grant_key, auth, expiry) VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id, grant_key) DO UPDATE SET auth = excluded.auth, expiry = excluded.expiry
	`, sessionID, key, g.Auth, g.Expiry)
	if err != nil {
		return fmt.Errorf("save grant: %w", err)
	}
	return nil
}

// LoadGrant returns the stored grant, expired or not; ok is false when there is none.
func (s *ViewStore) LoadGrant(ctx context.Context, sessionID, key string) (Grant, bool, error) {
	var g Grant
	err := s.db.QueryRowContext(ctx, `
		SELECT auth, expiry FROM gate_grants WHERE session_id = ? AND grant_key = ?
	`, sessionID, key).Scan(&g.Auth, &g.Expiry)
	if err == sql.ErrNoRows {
		return Grant{}, false, nil
	}
	if err != nil {
		return Grant{}, false, fmt.Errorf("load grant: %w", err)
	}
	return g, true, nil
}

func (s *ViewStore) DeleteGrant(ctx context.Context, sessionID, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM gate_grants WHERE session_id = ? AND grant_key = ?`, sessionID, key); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

// PruneGrants drops every grant whose expiry (unix ms) is not after now.
func (s *ViewStore) PruneGrants(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM gate_grants WHERE expiry <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune grants: %w", err)
	}
	return res.RowsAffected()
}
