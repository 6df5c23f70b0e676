package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Writer appends audit events inside the caller's transaction so the
// event lands atomically with the write it describes.
type Writer struct {
	Now func() time.Time
}

type Payload map[string]any

// Event is one audit log row.
type Event struct {
	ID         int64
	TS         time.Time
	Type       string
	EntityKind string
	EntityID   uuid.UUID
	ActorID    uuid.UUID
	Payload    Payload
}

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, entityKind string, entityID, actorID uuid.UUID, payload Payload) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	if payload == nil {
		payload = Payload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339Nano), evtType, entityKind, nullableID(entityID), nullableID(actorID), string(data))
	return err
}

// Tail returns the most recent events, newest first.
func Tail(ctx context.Context, db *sql.DB, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		var ts, payload string
		var entityID, actorID sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Type, &e.EntityKind, &entityID, &actorID, &payload); err != nil {
			return nil, err
		}
		if e.TS, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, err
		}
		if entityID.Valid {
			if e.EntityID, err = uuid.Parse(entityID.String); err != nil {
				return nil, err
			}
		}
		if actorID.Valid {
			if e.ActorID, err = uuid.Parse(actorID.String); err != nil {
				return nil, err
			}
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}
