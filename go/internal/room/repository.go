package room

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"github.com/stagecue/stagecue/go/internal/models"
	"github.com/stagecue/stagecue/go/internal/sqlutil"
)

// Repository implements the Store port on Postgres.
//
// Schema:
//
//	CREATE TABLE rooms (
//	    room_id    TEXT PRIMARY KEY,
//	    admin_id   TEXT NOT NULL,
//	    settings   JSONB,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE room_timers (
//	    id           UUID PRIMARY KEY,
//	    room_id      TEXT NOT NULL REFERENCES rooms(room_id) ON DELETE CASCADE,
//	    name         TEXT NOT NULL,
//	    duration_sec INT NOT NULL,
//	    state        TEXT NOT NULL,
//	    started_at   TIMESTAMPTZ,
//	    paused_at    TIMESTAMPTZ,
//	    markers      JSONB NOT NULL,
//	    position     INT NOT NULL
//	);
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Postgres-backed room store.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRoom inserts the room row.
func (r *Repository) CreateRoom(ctx context.Context, doc models.RoomDoc) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rooms (room_id, admin_id, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		doc.RoomID, doc.AdminID, sqlutil.ToNullRaw(doc.Settings), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// LoadRoom fetches the room row and its timers in insertion order.
func (r *Repository) LoadRoom(ctx context.Context, roomID string) (*models.RoomDoc, error) {
	doc := models.RoomDoc{RoomID: roomID}
	var settings pqtype.NullRawMessage
	err := r.db.QueryRowContext(ctx, `
		SELECT admin_id, settings, created_at, updated_at
		FROM rooms WHERE room_id = $1`,
		roomID,
	).Scan(&doc.AdminID, &settings, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room: %w", err)
	}
	doc.Settings = sqlutil.FromNullRaw(settings)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, duration_sec, state, started_at, paused_at, markers
		FROM room_timers WHERE room_id = $1
		ORDER BY position`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load room timers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		timer, err := scanTimer(rows)
		if err != nil {
			return nil, err
		}
		doc.Timers = append(doc.Timers, timer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate room timers: %w", err)
	}
	return &doc, nil
}

// DeleteRoom removes the room row; timers cascade.
func (r *Repository) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}

// AppendTimer inserts a timer at the end of the room's timer list. The
// insert and the room touch commit together.
func (r *Repository) AppendTimer(ctx context.Context, roomID string, timer models.Timer) error {
	markersJSON, err := json.Marshal(timer.Markers)
	if err != nil {
		return fmt.Errorf("failed to marshal markers: %w", err)
	}
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO room_timers (id, room_id, name, duration_sec, state, started_at, paused_at, markers, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
				(SELECT COALESCE(MAX(position), 0) + 1 FROM room_timers WHERE room_id = $2))`,
			timer.ID, roomID, timer.Name, timer.DurationSec, timer.State,
			sqlutil.ToSqlTime(timer.StartedAt), sqlutil.ToSqlTime(timer.PausedAt), markersJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to append timer: %w", err)
		}
		return touchRoom(ctx, tx, roomID)
	})
}

// UpdateTimer writes the timer's state and anchors.
func (r *Repository) UpdateTimer(ctx context.Context, roomID string, timer models.Timer) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE room_timers
			SET state = $3, started_at = $4, paused_at = $5
			WHERE id = $1 AND room_id = $2`,
			timer.ID, roomID, timer.State,
			sqlutil.ToSqlTime(timer.StartedAt), sqlutil.ToSqlTime(timer.PausedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to update timer: %w", err)
		}
		return touchRoom(ctx, tx, roomID)
	})
}

// RemoveTimer deletes the timer row.
func (r *Repository) RemoveTimer(ctx context.Context, roomID string, timerID uuid.UUID) error {
	return sqlutil.Run(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM room_timers WHERE id = $1 AND room_id = $2`,
			timerID, roomID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove timer: %w", err)
		}
		return touchRoom(ctx, tx, roomID)
	})
}

// UpdateSettings replaces the room's display settings blob.
func (r *Repository) UpdateSettings(ctx context.Context, roomID string, settings json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET settings = $2, updated_at = NOW() WHERE room_id = $1`,
		roomID, sqlutil.ToNullRaw(settings),
	)
	if err != nil {
		return fmt.Errorf("failed to update room settings: %w", err)
	}
	return nil
}

func touchRoom(ctx context.Context, tx *sql.Tx, roomID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE rooms SET updated_at = NOW() WHERE room_id = $1`,
		roomID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch room: %w", err)
	}
	return nil
}

func scanTimer(rows *sql.Rows) (models.Timer, error) {
	var (
		timer       models.Timer
		startedAt   sql.NullTime
		pausedAt    sql.NullTime
		markersJSON []byte
	)
	if err := rows.Scan(&timer.ID, &timer.Name, &timer.DurationSec, &timer.State, &startedAt, &pausedAt, &markersJSON); err != nil {
		return models.Timer{}, fmt.Errorf("failed to scan timer: %w", err)
	}
	timer.StartedAt = sqlutil.FromSqlTime(startedAt)
	timer.PausedAt = sqlutil.FromSqlTime(pausedAt)
	if err := json.Unmarshal(markersJSON, &timer.Markers); err != nil {
		return models.Timer{}, fmt.Errorf("failed to unmarshal markers: %w", err)
	}
	return timer, nil
}
