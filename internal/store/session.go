package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session represents one practice session with aggregate throw statistics.
type Session struct {
	ID         string
	StartedAt  time.Time
	EndedAt    time.Time
	Successes  int
	Failures   int
	MeanApex   float64
	StddevApex float64
}

// ThrowRecord represents one completed throw within a session.
type ThrowRecord struct {
	ID         int64
	SessionID  string
	TrackID    int
	ApexHeight float64
	Verdict    string
	ThrownAt   time.Time
}

// SessionRepository provides CRUD operations for sessions and throws.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session into the database.
func (r *SessionRepository) Create(sess *Session) error {
	_, err := r.db.Exec(
		`INSERT INTO sessions (id, started_at, ended_at, successes, failures, mean_apex, stddev_apex)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.StartedAt, sess.EndedAt, sess.Successes, sess.Failures,
		sess.MeanApex, sess.StddevApex,
	)
	return err
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess := &Session{}
	err := r.db.QueryRow(
		`SELECT id, started_at, ended_at, successes, failures, mean_apex, stddev_apex
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.StartedAt, &sess.EndedAt, &sess.Successes, &sess.Failures,
		&sess.MeanApex, &sess.StddevApex)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List retrieves all sessions, most recent first.
func (r *SessionRepository) List() ([]*Session, error) {
	rows, err := r.db.Query(
		`SELECT id, started_at, ended_at, successes, failures, mean_apex, stddev_apex
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess := &Session{}
		err := rows.Scan(&sess.ID, &sess.StartedAt, &sess.EndedAt, &sess.Successes,
			&sess.Failures, &sess.MeanApex, &sess.StddevApex)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// AddThrow inserts a throw record for a session.
func (r *SessionRepository) AddThrow(t *ThrowRecord) error {
	result, err := r.db.Exec(
		`INSERT INTO throws (session_id, track_id, apex_height, verdict, thrown_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.SessionID, t.TrackID, t.ApexHeight, t.Verdict, t.ThrownAt,
	)
	if err != nil {
		return err
	}

	t.ID, err = result.LastInsertId()
	return err
}

// Throws retrieves all throw records for a session in throw order.
func (r *SessionRepository) Throws(sessionID string) ([]*ThrowRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, track_id, apex_height, verdict, thrown_at
		 FROM throws WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var throws []*ThrowRecord
	for rows.Next() {
		t := &ThrowRecord{}
		err := rows.Scan(&t.ID, &t.SessionID, &t.TrackID, &t.ApexHeight, &t.Verdict, &t.ThrownAt)
		if err != nil {
			return nil, err
		}
		throws = append(throws, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return throws, nil
}
