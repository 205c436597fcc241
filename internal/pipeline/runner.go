package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"resume-uploader/internal/identity"
	"resume-uploader/internal/ledger"
	"resume-uploader/internal/mapping"
	"resume-uploader/internal/submit"
)

// TextExtractor produces first-page plain text for a PDF, or "" when the
// document yields none. The production implementation is pdf.FirstPageText.
type TextExtractor func(path string) string

// Submitter is the two-phase protocol surface the pipeline drives.
type Submitter interface {
	ValidateEmail(ctx context.Context, email, jobObjID string) (submit.Result, error)
	UploadResume(ctx context.Context, jobObjID, firstName, lastName, email, pdfPath string) (submit.Result, error)
}

// Counters tracks outcomes at job and run scope.
type Counters struct {
	Total          int
	ParseFailed    int
	ValidateFailed int
	UploadOK       int
	UploadFailed   int
	Skipped        int // already present in the success ledger
}

func (c *Counters) add(o Counters) {
	c.Total += o.Total
	c.ParseFailed += o.ParseFailed
	c.ValidateFailed += o.ValidateFailed
	c.UploadOK += o.UploadOK
	c.UploadFailed += o.UploadFailed
	c.Skipped += o.Skipped
}

type Options struct {
	ResumeRoot  string
	EmailPrefix string
	EmailDomain string

	// SkipOnValidateFail drops a candidate after a validation failure
	// instead of attempting the upload anyway.
	SkipOnValidateFail bool

	// Workers bounds concurrent candidates within a job; 1 keeps the
	// reference sequential behavior.
	Workers int

	// AlreadyUploaded holds external ids to skip, recomputed from the
	// success ledger for resumed runs. Nil disables resumption.
	AlreadyUploaded map[string]bool

	RunID string
}

// Runner walks job folders and drives every PDF through parse, validate,
// upload and exactly one terminal ledger row. Per-candidate failures are
// data, never run aborts.
type Runner struct {
	client  Submitter
	led     *ledger.Ledger
	extract TextExtractor
	opts    Options

	mu    sync.Mutex
	grand Counters
}

func New(client Submitter, led *ledger.Ledger, extract TextExtractor, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{client: client, led: led, extract: extract, opts: opts}
}

// Run processes every mapping in order and returns the run-wide counters.
func (r *Runner) Run(ctx context.Context, mappings []mapping.Mapping) (Counters, error) {
	r.led.Progressf("RUN START | run_id=%s | root=%s | jobs=%d",
		r.opts.RunID, r.opts.ResumeRoot, len(mappings))

	for _, m := range mappings {
		if err := ctx.Err(); err != nil {
			return r.snapshot(), err
		}
		r.runJob(ctx, m)
	}

	grand := r.snapshot()
	r.led.Progressf("====== GRAND SUMMARY ======")
	r.led.Progressf("Total processed: %d", grand.Total)
	r.led.Progressf("Uploaded OK:     %d", grand.UploadOK)
	r.led.Progressf("Parse failed:    %d", grand.ParseFailed)
	r.led.Progressf("Validate failed: %d", grand.ValidateFailed)
	r.led.Progressf("Upload failed:   %d", grand.UploadFailed)
	if grand.Skipped > 0 {
		r.led.Progressf("Skipped (resumed): %d", grand.Skipped)
	}
	r.led.Progressf("RUN END | run_id=%s", r.opts.RunID)
	return grand, nil
}

func (r *Runner) runJob(ctx context.Context, m mapping.Mapping) {
	folder := filepath.Join(r.opts.ResumeRoot, mapping.FolderName(m.JobID))
	if _, err := os.Stat(folder); err != nil {
		r.led.Progressf("[FOLDER MISSING] job_%s | job_obj_id=%s | path=%s", m.JobID, m.JobObjID, folder)
		return
	}

	pdfs, err := listPDFs(folder)
	if err != nil {
		r.led.Progressf("[FOLDER UNREADABLE] job_%s | path=%s | %v", m.JobID, folder, err)
		return
	}

	r.led.Progressf("=== START JOB job_%s -> job_obj_id=%s | files=%d ===", m.JobID, m.JobObjID, len(pdfs))

	job := &Counters{}
	if r.opts.Workers == 1 {
		for _, p := range pdfs {
			if ctx.Err() != nil {
				break
			}
			r.process(ctx, m, p, job)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.opts.Workers)
		for _, p := range pdfs {
			p := p
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				r.process(gctx, m, p, job)
				return nil
			})
		}
		g.Wait()
	}

	r.mu.Lock()
	r.grand.add(*job)
	done := *job
	r.mu.Unlock()

	r.led.Progressf("=== DONE JOB job_%s | total=%d ok=%d upload_fail=%d validate_fail=%d parse_fail=%d ===",
		m.JobID, done.Total, done.UploadOK, done.UploadFailed, done.ValidateFailed, done.ParseFailed)
}

// process resolves one candidate file end to end, appending exactly one
// terminal ledger row (two when a validate failure is configured to not
// stop the upload).
func (r *Runner) process(ctx context.Context, m mapping.Mapping, pdfPath string, job *Counters) {
	name := filepath.Base(pdfPath)
	seq, _ := r.count(job, func(c *Counters) { c.Total++ })

	info, err := identity.ParseFilename(name)
	if err != nil {
		_, c := r.count(job, func(c *Counters) { c.ParseFailed++ })
		r.led.Failure(ledger.Row{
			JobObjID: m.JobObjID,
			JobID:    m.JobID,
			JobTitle: m.JobTitle,
			Stage:    "parse",
			Message:  "Bad filename format",
		})
		r.led.Progressf("[job_%s] #%d PARSE_FAIL | file=%s | %s", m.JobID, seq, name, c)
		return
	}

	if r.opts.AlreadyUploaded[info.Stem] {
		_, c := r.count(job, func(c *Counters) { c.Skipped++ })
		r.led.Progressf("[job_%s] #%d ALREADY_UPLOADED | external_id=%s | %s", m.JobID, seq, info.Stem, c)
		return
	}

	email := identity.SyntheticEmail(info.Stem, r.opts.EmailPrefix, r.opts.EmailDomain)
	firstName, lastName := identity.ExtractName(r.extract(pdfPath))

	row := ledger.Row{
		JobObjID:   m.JobObjID,
		JobID:      m.JobID,
		JobTitle:   m.JobTitle,
		ProfileID:  info.ProfileID,
		ExternalID: info.Stem,
		Email:      email,
	}

	vres, err := r.client.ValidateEmail(ctx, email, m.JobObjID)
	if err != nil {
		_, c := r.count(job, func(c *Counters) { c.ValidateFailed++ })
		row.Stage = "validate"
		row.Message = "Exception: " + err.Error()
		r.led.Failure(row)
		r.led.Progressf("[job_%s] #%d VALIDATE_EXCEPTION | file=%s | %s", m.JobID, seq, name, c)
		return
	}
	if !vres.OK {
		_, c := r.count(job, func(c *Counters) { c.ValidateFailed++ })
		vrow := row
		vrow.Stage = "validate"
		vrow.StatusCode = vres.Status
		vrow.Message = orDefault(vres.Message, "validate_failed")
		r.led.Failure(vrow)
		r.led.Progressf("[job_%s] #%d VALIDATE_FAIL(%d) | file=%s | %s", m.JobID, seq, vres.Status, name, c)
		if r.opts.SkipOnValidateFail {
			return
		}
	}

	ures, err := r.client.UploadResume(ctx, m.JobObjID, firstName, lastName, email, pdfPath)
	if err != nil {
		_, c := r.count(job, func(c *Counters) { c.UploadFailed++ })
		row.Stage = "upload"
		row.Message = "Exception: " + err.Error()
		r.led.Failure(row)
		r.led.Progressf("[job_%s] #%d UPLOAD_EXCEPTION | file=%s | %s", m.JobID, seq, name, c)
		return
	}

	row.Stage = "upload"
	row.StatusCode = ures.Status
	if ures.OK {
		_, c := r.count(job, func(c *Counters) { c.UploadOK++ })
		row.Message = orDefault(ures.Message, "upload_ok")
		row.CandidateObjID = ures.CandidateObjID
		row.ApplicationObjID = ures.ApplicationObjID
		r.led.Success(row)
		r.led.Progressf("[job_%s] #%d UPLOAD_OK | file=%s | %s", m.JobID, seq, name, c)
	} else {
		_, c := r.count(job, func(c *Counters) { c.UploadFailed++ })
		row.Message = orDefault(ures.Message, "upload_failed")
		r.led.Failure(row)
		r.led.Progressf("[job_%s] #%d UPLOAD_FAIL(%d) | file=%s | %s", m.JobID, seq, ures.Status, name, c)
	}
}

// count applies one increment under the lock and returns the job's running
// total plus a formatted snapshot for progress lines.
func (r *Runner) count(job *Counters, inc func(*Counters)) (int, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inc(job)
	return job.Total, formatCounts(*job)
}

func (r *Runner) snapshot() Counters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.grand
}

func formatCounts(c Counters) string {
	return fmt.Sprintf("ok=%d upload_fail=%d validate_fail=%d parse_fail=%d",
		c.UploadOK, c.UploadFailed, c.ValidateFailed, c.ParseFailed)
}

func listPDFs(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		out = append(out, filepath.Join(folder, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
