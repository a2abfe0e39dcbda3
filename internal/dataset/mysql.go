package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"ljbuild/internal/pipeline"
)

// MySQL streams (file_path, transcript) rows from an audio-labeler database.
// The utterance id is the file stem.
type MySQL struct {
	db   *sql.DB
	rows *sql.Rows
}

// OpenMySQL connects with dsn and starts query. The query must select the
// audio path and the transcript, in that order.
func OpenMySQL(ctx context.Context, dsn, query string) (*MySQL, error) {
	if dsn == "" {
		return nil, errors.New("dataset.dsn is required for the mysql source")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("query: %w", err)
	}
	return &MySQL{db: db, rows: rows}, nil
}

// Next implements pipeline.Source.
func (m *MySQL) Next(ctx context.Context) (pipeline.Record, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Record{}, err
	}
	if !m.rows.Next() {
		if err := m.rows.Err(); err != nil {
			return pipeline.Record{}, err
		}
		return pipeline.Record{}, io.EOF
	}
	var path string
	var text sql.NullString
	if err := m.rows.Scan(&path, &text); err != nil {
		return pipeline.Record{}, err
	}
	return fileRecord(path, text.String)
}

// Close implements pipeline.Source.
func (m *MySQL) Close() error {
	_ = m.rows.Close()
	return m.db.Close()
}

func fileRecord(path, text string) (pipeline.Record, error) {
	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Record{}, fmt.Errorf("%s: %w", id, err)
	}
	return pipeline.Record{ID: id, Transcript: text, Audio: pipeline.EncodedAudio{Data: data}}, nil
}
