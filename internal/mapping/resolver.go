package mapping

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	nonAlnumRE = regexp.MustCompile(`[^a-z0-9]+`)
	digitsRE   = regexp.MustCompile(`[0-9]+`)
)

// Mapping associates a local job folder with a remote destination.
type Mapping struct {
	JobID    string // normalized numeric string
	JobObjID string // opaque remote key
	JobTitle string
}

// NormalizeKey canonicalizes a CSV header: lower-case, non-alphanumeric
// runs collapsed to one underscore, edges trimmed. "Job|_obj_id" and
// "JobObjId" both become "job_obj_id".
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRE.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// NormalizeJobID extracts the first run of digits anywhere in the raw
// value: "job_258" and "Job-258 " both normalize to "258". A value with no
// digits normalizes to empty.
func NormalizeJobID(raw string) string {
	return digitsRE.FindString(raw)
}

// FolderName is the canonical filesystem folder for a job id.
func FolderName(jobID string) string {
	return "job_" + jobID
}

// LoadCSV reads job mappings from a row-oriented file with headers
// resolvable to job_id and job_obj_id, optionally job_title. Rows that lack
// either id after normalization are dropped.
func LoadCSV(path string) ([]Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job mapping file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read job mapping header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[NormalizeKey(h)] = i
	}

	var out []Mapping
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read job mapping row: %w", err)
		}
		field := func(key string) string {
			i, ok := cols[key]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		m := Mapping{
			JobID:    NormalizeJobID(field("job_id")),
			JobObjID: field("job_obj_id"),
			JobTitle: field("job_title"),
		}
		if m.JobID == "" || m.JobObjID == "" {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// FromMap builds mappings from a static folder→destination table, the
// inline form used for small targeted runs. Keys go through the same job-id
// normalization as CSV rows; entries without a numeric id or destination
// are dropped. Output order is deterministic.
func FromMap(jobs map[string]string) []Mapping {
	keys := make([]string, 0, len(jobs))
	for k := range jobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Mapping
	for _, k := range keys {
		m := Mapping{
			JobID:    NormalizeJobID(k),
			JobObjID: strings.TrimSpace(jobs[k]),
		}
		if m.JobID == "" || m.JobObjID == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Filter narrows mappings to a single job for targeted re-runs, by numeric
// job id and/or destination object id. Empty filters match everything.
func Filter(ms []Mapping, jobID, jobObjID string) []Mapping {
	jobID = NormalizeJobID(jobID)
	var out []Mapping
	for _, m := range ms {
		if jobID != "" && m.JobID != jobID {
			continue
		}
		if jobObjID != "" && m.JobObjID != jobObjID {
			continue
		}
		out = append(out, m)
	}
	return out
}
