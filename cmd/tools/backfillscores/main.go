package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"resume-uploader/internal/storage"
)

// Joins the success ledger with fit scores computed downstream: for every
// uploaded application the score is looked up by application_obj_id and the
// row is rewritten with a fit_score column appended.
func main() {
	var dryRun bool
	var limit int
	var inPath, outPath string
	flag.BoolVar(&dryRun, "dry-run", true, "If true, do not write the output file; just print matches")
	flag.IntVar(&limit, "limit", 200, "Max number of ledger rows to process in one run")
	flag.StringVar(&inPath, "in", filepath.Join("logs", "success.csv"), "Success ledger to read")
	flag.StringVar(&outPath, "out", filepath.Join("logs", "profile_results.csv"), "Output CSV with fit_score appended")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	log.Printf("Connecting to DB...")
	db, err := storage.NewDB(dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	f, err := os.Open(inPath)
	if err != nil {
		log.Fatalf("open %s: %v", inPath, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		log.Fatalf("read %s: %v", inPath, err)
	}
	if len(records) < 2 {
		log.Printf("No ledger rows in %s; nothing to do", inPath)
		return
	}

	header := records[0]
	appCol := -1
	for i, h := range header {
		if h == "application_obj_id" {
			appCol = i
		}
	}
	if appCol < 0 {
		log.Fatalf("%s has no application_obj_id column", inPath)
	}

	ctx := context.Background()
	out := [][]string{append(append([]string{}, header...), "fit_score")}

	var scored, missing int
	for _, row := range records[1:] {
		if scored+missing >= limit {
			break
		}
		appID := row[appCol]
		if appID == "" {
			continue
		}

		score, err := db.FitScoreByApplicationID(ctx, appID)
		if err == sql.ErrNoRows {
			log.Printf("No fit score yet for application %s", appID)
			missing++
			continue
		}
		if err != nil {
			log.Printf("lookup failed for application %s: %v", appID, err)
			continue
		}

		scored++
		formatted := strconv.FormatFloat(score, 'f', -1, 64)
		log.Printf("Application %s -> fit_score=%s", appID, formatted)
		out = append(out, append(append([]string{}, row...), formatted))
	}

	log.Printf("Scored %d applications, %d pending (limit %d)", scored, missing, limit)

	if dryRun {
		log.Printf("[dry-run] Would write %d rows to %s", len(out)-1, outPath)
		return
	}

	of, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("create %s: %v", outPath, err)
	}
	defer of.Close()

	w := csv.NewWriter(of)
	if err := w.WriteAll(out); err != nil {
		log.Fatalf("write %s: %v", outPath, err)
	}
	log.Printf("Backfill run complete: %s", outPath)
}
