package sqlite

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/laserscan/internal/scan/l1calib"
	"github.com/banshee-data/laserscan/internal/scan/l5cloud"
)

// ErrSessionNotFound is returned when no session has the requested id.
var ErrSessionNotFound = errors.New("scan session not found")

// Session is a persisted scan session. StoppedAt is zero while the session
// is still running (or was never finished).
type Session struct {
	ID          uuid.UUID      `json:"id"`
	StartedAt   time.Time      `json:"started_at"`
	StoppedAt   time.Time      `json:"stopped_at,omitempty"`
	Calibration l1calib.Params `json:"calibration"`
	PointCount  int            `json:"point_count"`
}

// Finished reports whether the session has a stored cloud.
func (s *Session) Finished() bool { return !s.StoppedAt.IsZero() }

// SessionStore persists scan sessions and their final clouds.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// CreateSession records the start of a scan.
func (s *SessionStore) CreateSession(id uuid.UUID, calibration l1calib.Params, startedAt time.Time) error {
	calJSON, err := json.Marshal(calibration)
	if err != nil {
		return fmt.Errorf("failed to marshal calibration: %w", err)
	}
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO scan_sessions (id, started_at, calibration_json, point_count)
			VALUES (?, ?, ?, 0)`,
			id.String(), startedAt.UnixNano(), string(calJSON),
		)
		return err
	})
}

// FinishSession stores the final cloud and marks the session stopped.
// Finishing a session twice replaces the stored cloud.
func (s *SessionStore) FinishSession(id uuid.UUID, cloud l5cloud.Cloud, stoppedAt time.Time) error {
	blob, err := serializeCloud(cloud)
	if err != nil {
		return fmt.Errorf("failed to serialize cloud: %w", err)
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()

		res, err := tx.Exec(`
			UPDATE scan_sessions SET stopped_at = ?, point_count = ? WHERE id = ?`,
			stoppedAt.UnixNano(), cloud.Len(), id.String(),
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}

		if _, err := tx.Exec(`
			INSERT INTO scan_clouds (session_id, blob) VALUES (?, ?)
			ON CONFLICT(session_id) DO UPDATE SET blob = excluded.blob`,
			id.String(), blob,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// GetSession returns a single session.
func (s *SessionStore) GetSession(id uuid.UUID) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, stopped_at, calibration_json, point_count
		FROM scan_sessions WHERE id = ?`, id.String())
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, err
}

// ListSessions returns every session, newest first.
func (s *SessionStore) ListSessions() ([]*Session, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, stopped_at, calibration_json, point_count
		FROM scan_sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// LoadCloud returns the cloud stored by FinishSession.
func (s *SessionStore) LoadCloud(id uuid.UUID) (l5cloud.Cloud, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM scan_clouds WHERE session_id = ?`, id.String()).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return l5cloud.Cloud{}, fmt.Errorf("%w: no cloud for %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return l5cloud.Cloud{}, err
	}
	return deserializeCloud(blob)
}

// DeleteSession removes a session and its cloud.
func (s *SessionStore) DeleteSession(id uuid.UUID) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM scan_sessions WHERE id = ?`, id.String())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(r rowScanner) (*Session, error) {
	var (
		idStr     string
		startedAt int64
		stoppedAt sql.NullInt64
		calJSON   string
		sess      Session
	)
	if err := r.Scan(&idStr, &startedAt, &stoppedAt, &calJSON, &sess.PointCount); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", idStr, err)
	}
	if err := json.Unmarshal([]byte(calJSON), &sess.Calibration); err != nil {
		return nil, fmt.Errorf("invalid calibration for %s: %w", idStr, err)
	}
	sess.ID = id
	sess.StartedAt = time.Unix(0, startedAt)
	if stoppedAt.Valid {
		sess.StoppedAt = time.Unix(0, stoppedAt.Int64)
	}
	return &sess, nil
}

// serializeCloud compresses the cloud using gob encoding and gzip compression.
func serializeCloud(c l5cloud.Cloud) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(c); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deserializeCloud decompresses and decodes a gob+gzip cloud blob.
func deserializeCloud(blob []byte) (l5cloud.Cloud, error) {
	if len(blob) == 0 {
		return l5cloud.Cloud{}, fmt.Errorf("empty cloud blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return l5cloud.Cloud{}, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var c l5cloud.Cloud
	if err := gob.NewDecoder(gz).Decode(&c); err != nil {
		return l5cloud.Cloud{}, fmt.Errorf("failed to decode cloud: %w", err)
	}
	return c, nil
}
