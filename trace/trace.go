// Package trace records interpreter steps into a SQLite database.
package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/kkipple/compiler/hash"
	"github.com/chazu/kkipple/vm"
)

var log = commonlog.GetLogger("kkipple.trace")

// ErrRunNotFound indicates the requested run doesn't exist.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id       TEXT PRIMARY KEY,
	source   TEXT NOT NULL,
	program  TEXT NOT NULL DEFAULT '',
	started  TEXT NOT NULL,
	steps    INTEGER NOT NULL DEFAULT 0,
	error    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS steps (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	seq      INTEGER NOT NULL,
	op       TEXT NOT NULL,
	line     INTEGER NOT NULL,
	col      INTEGER NOT NULL,
	guard    INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);`

// Store is a trace database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens (creating if needed) the trace database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace database: %w", err)
	}
	// One connection keeps an open recording transaction and later reads
	// on the same database file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Recording
// ---------------------------------------------------------------------------

// Recorder writes the steps of one run. It implements vm.Tracer. Steps are
// buffered in a transaction that Finish commits.
type Recorder struct {
	store  *Store
	tx     *sql.Tx
	insert *sql.Stmt
	id     string
	steps  uint64
}

// Begin starts recording a run of source.
func (s *Store) Begin(source string) (*Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	// Sources that fail to parse still get a run row, with no program hash.
	program, _ := hash.HashSource(source)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning trace: %w", err)
	}
	_, err = tx.Exec("INSERT INTO runs (id, source, program, started) VALUES (?, ?, ?, ?)",
		id, source, program, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("saving run: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO steps (run_id, seq, op, line, col, guard) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("preparing step insert: %w", err)
	}
	log.Debugf("recording run %s to %s", id, s.path)
	return &Recorder{store: s, tx: tx, insert: stmt, id: id}, nil
}

// RunID returns the generated identifier of the run.
func (r *Recorder) RunID() string {
	return r.id
}

// Step records one dispatched operation.
func (r *Recorder) Step(st vm.Step) error {
	_, err := r.insert.Exec(r.id, int64(st.Seq), st.Op.String(), st.Pos.Line, st.Pos.Column, st.Guard)
	if err != nil {
		return fmt.Errorf("saving step %d: %w", st.Seq, err)
	}
	r.steps++
	return nil
}

// Finish stores the outcome of the run and commits everything recorded.
func (r *Recorder) Finish(runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	defer r.insert.Close()

	if _, err := r.tx.Exec("UPDATE runs SET steps = ?, error = ? WHERE id = ?", int64(r.steps), msg, r.id); err != nil {
		r.tx.Rollback()
		return fmt.Errorf("updating run: %w", err)
	}
	if err := r.tx.Commit(); err != nil {
		return fmt.Errorf("committing trace: %w", err)
	}
	log.Infof("recorded %d steps for run %s", r.steps, r.id)
	return nil
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Run is a stored run.
type Run struct {
	ID      string
	Source  string
	Program string // content hash of the parsed source
	Started time.Time
	Steps   uint64
	Error   string
}

// StepRecord is a stored step.
type StepRecord struct {
	Seq    uint64
	Op     string
	Line   int
	Column int
	Guard  int
}

// Run loads one run by id.
func (s *Store) Run(id string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var run Run
	var started string
	var steps int64
	err := s.db.QueryRow("SELECT id, source, program, started, steps, error FROM runs WHERE id = ?", id).
		Scan(&run.ID, &run.Source, &run.Program, &started, &steps, &run.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	run.Steps = uint64(steps)
	if run.Started, err = time.Parse(time.RFC3339, started); err != nil {
		return nil, fmt.Errorf("parsing start time of run %s: %w", id, err)
	}
	return &run, nil
}

// RunsOf returns the ids of every run of the program with the given content
// hash, oldest first.
func (s *Store) RunsOf(program string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT id FROM runs WHERE program = ? ORDER BY started, rowid", program)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Steps loads the recorded steps of a run in order.
func (s *Store) Steps(id string) ([]StepRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT seq, op, line, col, guard FROM steps WHERE run_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("querying steps: %w", err)
	}
	defer rows.Close()

	var out []StepRecord
	for rows.Next() {
		var rec StepRecord
		var seq int64
		if err := rows.Scan(&seq, &rec.Op, &rec.Line, &rec.Column, &rec.Guard); err != nil {
			return nil, fmt.Errorf("scanning step: %w", err)
		}
		rec.Seq = uint64(seq)
		out = append(out, rec)
	}
	return out, rows.Err()
}
