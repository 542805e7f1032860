package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// RoomLog is an append-only record of created rooms, keyed by room code.
// It exists for operators, not for the game: writes are best-effort and a
// failure never fails room creation.
type RoomLog struct {
	db *sql.DB
}

// OpenRoomLog opens (or creates) the sqlite database at path.
func OpenRoomLog(path string) (*RoomLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open room log: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS room_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		host_name TEXT NOT NULL,
		max_participants INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS room_log_code ON room_log(code);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create room log schema: %w", err)
	}
	return &RoomLog{db: db}, nil
}

// Append records one created room.
func (l *RoomLog) Append(ctx context.Context, code, hostName string, maxParticipants int, status string, createdAt int64) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO room_log (code, host_name, max_participants, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		code, hostName, maxParticipants, status, createdAt)
	return err
}

// Count returns the number of logged rooms for a code.
func (l *RoomLog) Count(ctx context.Context, code string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_log WHERE code = ?`, code).Scan(&n)
	return n, err
}

// Close releases the database handle.
func (l *RoomLog) Close() error {
	return l.db.Close()
}
