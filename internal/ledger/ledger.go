package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const (
	successFile  = "success.csv"
	failuresFile = "failures.csv"
	progressFile = "progress.log"

	// Raw remote error bodies are preserved for post-hoc diagnosis, but
	// bounded so one huge response cannot bloat the ledger.
	messageLimit = 5000
)

var successHeader = []string{
	"timestamp",
	"job_obj_id",
	"job_id",
	"job_title",
	"profile_id",
	"external_id",
	"email",
	"stage",
	"status_code",
	"message",
	"candidate_obj_id",
	"application_obj_id",
}

// failures carry the same columns minus the two remote record ids.
var failureHeader = successHeader[:10]

// Row is one pipeline outcome. StatusCode zero renders as an empty cell
// (transport failures have no HTTP status).
type Row struct {
	JobObjID         string
	JobID            string
	JobTitle         string
	ProfileID        string
	ExternalID       string
	Email            string
	Stage            string
	StatusCode       int
	Message          string
	CandidateObjID   string
	ApplicationObjID string
}

// Ledger is the append-only audit record store: a success table, a failure
// table and a human-readable progress stream, all under one directory.
// Rows are only ever appended, never rewritten; appends are serialized so
// concurrent workers cannot interleave mid-row.
type Ledger struct {
	mu  sync.Mutex
	dir string

	now func() time.Time
}

func New(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &Ledger{dir: dir, now: time.Now}, nil
}

func (l *Ledger) SuccessPath() string  { return filepath.Join(l.dir, successFile) }
func (l *Ledger) FailuresPath() string { return filepath.Join(l.dir, failuresFile) }
func (l *Ledger) ProgressPath() string { return filepath.Join(l.dir, progressFile) }

// Success appends one row to the success table.
func (l *Ledger) Success(r Row) error {
	return l.appendRow(l.SuccessPath(), successHeader, l.fields(r, true))
}

// Failure appends one row to the failure table.
func (l *Ledger) Failure(r Row) error {
	return l.appendRow(l.FailuresPath(), failureHeader, l.fields(r, false))
}

func (l *Ledger) fields(r Row, withIDs bool) []string {
	status := ""
	if r.StatusCode != 0 {
		status = strconv.Itoa(r.StatusCode)
	}
	msg := r.Message
	if len(msg) > messageLimit {
		msg = msg[:messageLimit]
	}
	fields := []string{
		l.now().Format("2006-01-02T15:04:05"),
		r.JobObjID,
		r.JobID,
		r.JobTitle,
		r.ProfileID,
		r.ExternalID,
		r.Email,
		r.Stage,
		status,
		msg,
	}
	if withIDs {
		fields = append(fields, r.CandidateObjID, r.ApplicationObjID)
	}
	return fields
}

// appendRow idempotently ensures the header exists, then appends exactly
// one record.
func (l *Ledger) appendRow(path string, header, fields []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open ledger file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	if err := w.Write(fields); err != nil {
		return fmt.Errorf("write ledger row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Progressf writes one timestamped line to progress.log and mirrors it to
// the standard logger. The file can be followed with tail -f during long
// runs. Progress writes are best effort; a failing log never stops the run.
func (l *Ledger) Progressf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	log.Println(line)

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.ProgressPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("progress log open failed: %v", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s | %s\n", l.now().Format("2006-01-02 15:04:05"), line)
}

// SucceededExternalIDs recomputes the already-uploaded set from prior
// success rows, so a rerun can skip candidates that already went through.
// A missing success table means an empty set, not an error.
func (l *Ledger) SucceededExternalIDs() (map[string]bool, error) {
	f, err := os.Open(l.SuccessPath())
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, fmt.Errorf("open success ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read success ledger header: %w", err)
	}

	idCol := -1
	for i, h := range header {
		if h == "external_id" {
			idCol = i
			break
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("success ledger has no external_id column")
	}

	ids := map[string]bool{}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read success ledger row: %w", err)
		}
		if idCol < len(rec) && rec[idCol] != "" {
			ids[rec[idCol]] = true
		}
	}
	return ids, nil
}
