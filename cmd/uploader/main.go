package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"resume-uploader/internal/config"
	"resume-uploader/internal/ledger"
	"resume-uploader/internal/mapping"
	"resume-uploader/internal/pdf"
	"resume-uploader/internal/pipeline"
	"resume-uploader/internal/submit"
	httpx "resume-uploader/pkg/http"
)

func main() {
	var (
		jobsPath   = flag.String("jobs", "", "Job mapping CSV (overrides JOB_MAPPING_CSV)")
		resumeRoot = flag.String("resumes", "", "Root folder with job_<id> subfolders (overrides RESUME_ROOT)")
		outDir     = flag.String("out", "", "Output folder for ledgers and progress log (overrides OUT_DIR)")
		onlyJob    = flag.String("job", "", "Restrict the run to one job id, e.g. 1393")
		onlyDest   = flag.String("dest", "", "Restrict the run to one destination job obj id")
		workers    = flag.Int("workers", 0, "Concurrent candidates per job (overrides WORKERS)")
		resumeRun  = flag.Bool("resume", false, "Skip files already present in the success ledger")
		proceed    = flag.Bool("proceed-on-validate-fail", false, "Attempt the upload even when email validation fails")
	)
	flag.Parse()

	cfg := config.Load()
	if *jobsPath != "" {
		cfg.MappingPath = *jobsPath
	}
	if *resumeRoot != "" {
		cfg.ResumeRoot = *resumeRoot
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	if *proceed {
		cfg.SkipOnValidateFail = false
	}

	if cfg.APIBase == "" {
		log.Fatal("set API_BASE environment variable (e.g. https://api.example.com)")
	}

	mappings, err := mapping.LoadCSV(cfg.MappingPath)
	if err != nil {
		log.Fatal("load job mapping:", err)
	}
	mappings = mapping.Filter(mappings, *onlyJob, *onlyDest)
	if len(mappings) == 0 {
		log.Fatal("no job mappings matched; nothing to do")
	}

	led, err := ledger.New(cfg.OutDir)
	if err != nil {
		log.Fatal("open ledgers:", err)
	}

	var already map[string]bool
	if *resumeRun {
		already, err = led.SucceededExternalIDs()
		if err != nil {
			log.Fatal("read success ledger:", err)
		}
		log.Printf("Resuming: %d files already uploaded", len(already))
	}

	client := submit.NewClient(submit.Options{
		BaseURL:         cfg.APIBase,
		AuthToken:       cfg.AuthToken,
		FileField:       cfg.UploadFileField,
		ValidateTimeout: cfg.ValidateTimeout,
		UploadTimeout:   cfg.UploadTimeout,
		Retry: httpx.RetryPolicy{
			MaxAttempts: cfg.MaxRetries,
			Backoff:     httpx.ExponentialBackoff,
			Retryable:   httpx.RetryOnTooManyRequests,
		},
	})

	runner := pipeline.New(client, led, pdf.FirstPageText, pipeline.Options{
		ResumeRoot:         cfg.ResumeRoot,
		EmailPrefix:        cfg.EmailPrefix,
		EmailDomain:        cfg.EmailDomain,
		SkipOnValidateFail: cfg.SkipOnValidateFail,
		Workers:            cfg.Workers,
		AlreadyUploaded:    already,
		RunID:              uuid.NewString(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Processing %d job(s) from %s", len(mappings), cfg.ResumeRoot)
	totals, err := runner.Run(ctx, mappings)
	if err != nil {
		// Per-candidate failures are already in the ledgers; only a cancelled
		// or broken run lands here.
		log.Println("run stopped early:", err)
	}

	log.Printf("Done. total=%d ok=%d upload_fail=%d validate_fail=%d parse_fail=%d skipped=%d",
		totals.Total, totals.UploadOK, totals.UploadFailed, totals.ValidateFailed, totals.ParseFailed, totals.Skipped)
	log.Println("Ledgers written to", cfg.OutDir)

	if err != nil {
		os.Exit(1)
	}
}
