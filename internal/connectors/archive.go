package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Archive is the local asset catalog backing the archive agent: a sqlite
// database with a search interface. Unlike the network connectors it is real
// in demo mode too, since everything stays on local disk.
type Archive struct {
	Base
	path string
	db   *sql.DB
}

// NewArchive creates the archive connector. path is the sqlite file.
func NewArchive(path string) *Archive {
	return &Archive{
		Base: NewBase("archive", "Archive Catalog", CategoryStorage, "none", true),
		path: path,
	}
}

func (a *Archive) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "archive_search",
			Description: "Search archived assets by title or tag substring",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
					"limit": map[string]any{"type": "number"},
				},
				"required": []any{"query"},
			},
			ConnectorID: "archive",
			Operation:   OpRead,
		},
		{
			Name:        "archive_ingest",
			Description: "Record an asset in the archive catalog",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"url":   map[string]any{"type": "string"},
					"tags":  map[string]any{"type": "string"},
				},
				"required": []any{"title"},
			},
			ConnectorID: "archive",
			Operation:   OpWrite,
		},
	}
}

// Authenticate opens the database and ensures the schema.
func (a *Archive) Authenticate(ctx context.Context) error {
	if a.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", a.path)
	if err != nil {
		return fmt.Errorf("archive open: %w", err)
	}
	// Single-writer control plane; serialize sqlite access.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS assets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			url TEXT,
			tags TEXT,
			ingested_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return fmt.Errorf("archive schema: %w", err)
	}
	a.db = db
	return nil
}

func (a *Archive) HealthCheck(ctx context.Context) Health {
	start := time.Now()
	h := Health{}
	if a.db == nil {
		h.Status = StatusDisconnected
		h.Message = "not opened"
		return h
	}
	if err := a.db.PingContext(ctx); err != nil {
		h.Status = StatusError
		h.Message = err.Error()
	} else {
		h.Status = StatusConnected
	}
	h.LatencyMS = time.Since(start).Milliseconds()
	return h
}

// Read searches the catalog.
func (a *Archive) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	if a.db == nil {
		return nil, fmt.Errorf("archive: not connected")
	}
	query := stringParam(params, "query", "")
	limit := 20
	if n, ok := params["limit"].(float64); ok && n > 0 && n < 200 {
		limit = int(n)
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, title, url, tags, ingested_at FROM assets
		 WHERE title LIKE ? OR tags LIKE ? ORDER BY id DESC LIMIT ?`,
		"%"+query+"%", "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("archive search: %w", err)
	}
	defer rows.Close()

	var matches []any
	for rows.Next() {
		var (
			id         int64
			title      string
			url, tags  sql.NullString
			ingestedAt string
		)
		if err := rows.Scan(&id, &title, &url, &tags, &ingestedAt); err != nil {
			return nil, err
		}
		matches = append(matches, map[string]any{
			"asset_id":    fmt.Sprintf("ARC-%04d", id),
			"title":       title,
			"url":         url.String,
			"tags":        tags.String,
			"ingested_at": ingestedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return map[string]any{"query": query, "matches": matches, "count": len(matches)}, nil
}

// Write records an asset.
func (a *Archive) Write(ctx context.Context, data, params map[string]any) (map[string]any, error) {
	if a.db == nil {
		return nil, fmt.Errorf("archive: not connected")
	}
	title := stringParam(data, "title", "")
	if title == "" {
		return nil, fmt.Errorf("archive_ingest: title required")
	}
	res, err := a.db.ExecContext(ctx,
		`INSERT INTO assets (title, url, tags, ingested_at) VALUES (?, ?, ?, ?)`,
		title, stringParam(data, "url", ""), stringParam(data, "tags", ""),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("archive ingest: %w", err)
	}
	id, _ := res.LastInsertId()
	return map[string]any{"asset_id": fmt.Sprintf("ARC-%04d", id), "ingested": true}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}
