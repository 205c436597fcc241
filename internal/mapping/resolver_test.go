package mapping

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"job_id", "job_id"},
		{"Job|_obj_id", "job_obj_id"},
		{"JobObjId", "jobobjid"},
		{"  Job Title ", "job_title"},
		{"__job--id__", "job_id"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeKey(tt.input); got != tt.want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeJobID(t *testing.T) {
	// All spellings of the same id must land on the same folder.
	for _, raw := range []string{"258", "job_258", "Job-258 "} {
		id := NormalizeJobID(raw)
		if id != "258" {
			t.Errorf("NormalizeJobID(%q) = %q, want %q", raw, id, "258")
		}
		if FolderName(id) != "job_258" {
			t.Errorf("FolderName(%q) = %q, want %q", id, FolderName(id), "job_258")
		}
	}

	if got := NormalizeJobID("no digits here"); got != "" {
		t.Errorf("NormalizeJobID without digits = %q, want empty", got)
	}
}

func TestLoadCSV(t *testing.T) {
	csvData := "Job|_obj_id,Job Id,Job Title\n" +
		"6970c43309b0d28599ec8071,job_1393,Backend Engineer\n" +
		"abc123,Job-258 ,\n" +
		",1400,Missing Destination\n" + // no obj id: dropped
		"def456,no-digits,Bad Job ID\n" // no numeric id: dropped

	path := filepath.Join(t.TempDir(), "jobs.csv")
	if err := os.WriteFile(path, []byte(csvData), 0644); err != nil {
		t.Fatal(err)
	}

	ms, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("got %d mappings, want 2: %+v", len(ms), ms)
	}

	if ms[0].JobID != "1393" || ms[0].JobObjID != "6970c43309b0d28599ec8071" || ms[0].JobTitle != "Backend Engineer" {
		t.Errorf("first mapping = %+v", ms[0])
	}
	if ms[1].JobID != "258" || ms[1].JobObjID != "abc123" {
		t.Errorf("second mapping = %+v", ms[1])
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFromMap(t *testing.T) {
	ms := FromMap(map[string]string{
		"job_1393": "objA",
		"job_258":  "objB",
		"garbage":  "objC", // no digits: dropped
		"job_77":   "",     // no destination: dropped
	})
	if len(ms) != 2 {
		t.Fatalf("got %d mappings, want 2: %+v", len(ms), ms)
	}
	// Sorted by folder key: job_1393 before job_258.
	if ms[0].JobID != "1393" || ms[1].JobID != "258" {
		t.Errorf("unexpected order: %+v", ms)
	}
}

func TestFilter(t *testing.T) {
	ms := []Mapping{
		{JobID: "1393", JobObjID: "objA"},
		{JobID: "258", JobObjID: "objB"},
	}

	if got := Filter(ms, "", ""); len(got) != 2 {
		t.Errorf("no filters: got %d, want 2", len(got))
	}
	if got := Filter(ms, "job_258", ""); len(got) != 1 || got[0].JobObjID != "objB" {
		t.Errorf("job filter: %+v", got)
	}
	if got := Filter(ms, "", "objA"); len(got) != 1 || got[0].JobID != "1393" {
		t.Errorf("dest filter: %+v", got)
	}
	if got := Filter(ms, "1393", "objB"); len(got) != 0 {
		t.Errorf("conflicting filters: %+v", got)
	}
}
