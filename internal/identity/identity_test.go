package identity

import (
	"strings"
	"testing"
)

func TestParseFilename(t *testing.T) {
	info, err := ParseFilename("app_pcf_1393_55317_0.pdf")
	if err != nil {
		t.Fatalf("ParseFilename returned error: %v", err)
	}

	if info.Stem != "app_pcf_1393_55317_0" {
		t.Errorf("Stem = %q, want %q", info.Stem, "app_pcf_1393_55317_0")
	}
	if info.Prefix != "pcf" {
		t.Errorf("Prefix = %q, want %q", info.Prefix, "pcf")
	}
	if info.JobID != "1393" {
		t.Errorf("JobID = %q, want %q", info.JobID, "1393")
	}
	if info.ResumeID != "55317" {
		t.Errorf("ResumeID = %q, want %q", info.ResumeID, "55317")
	}
	if info.Index != "0" {
		t.Errorf("Index = %q, want %q", info.Index, "0")
	}
	if info.ProfileID != "pcf_55317" {
		t.Errorf("ProfileID = %q, want %q", info.ProfileID, "pcf_55317")
	}
}

func TestParseFilenameRejectsBadNames(t *testing.T) {
	bad := []string{
		"",
		"resume.pdf",
		"app_pcf_1393_55317_0.PDF",
		"app_pcf_1393_55317_0.pdf.bak",
		"app_pcf2_1393_55317_0.pdf", // digits in source tag
		"app_pcf_1393_55317.pdf",    // missing index
		"app_pcf_abc_55317_0.pdf",   // non-numeric job
		"xapp_pcf_1393_55317_0.pdf", // leading junk
		"app_pcf_1393_55317_0_extra.pdf",
	}
	for _, name := range bad {
		if _, err := ParseFilename(name); err == nil {
			t.Errorf("ParseFilename(%q) accepted, want error", name)
		}
	}
}

func TestParseFilenameDeterministic(t *testing.T) {
	a, err := ParseFilename("app_pcf_258_72261_3.pdf")
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	b, err := ParseFilename("app_pcf_258_72261_3.pdf")
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	if *a != *b {
		t.Errorf("parses differ: %+v vs %+v", a, b)
	}
	if SyntheticEmail(a.Stem, "fake-for-warden", "fake-domain.com") !=
		SyntheticEmail(b.Stem, "fake-for-warden", "fake-domain.com") {
		t.Error("synthesized emails differ for identical input")
	}
}

func TestSyntheticEmail(t *testing.T) {
	got := SyntheticEmail("app_pcf_1393_55317_0", "fake-for-warden", "fake-domain.com")
	want := "fake-for-warden-app_pcf_1393_55317_0@fake-domain.com"
	if got != want {
		t.Errorf("SyntheticEmail = %q, want %q", got, want)
	}
}

func TestExtractName(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantFirst string
		wantLast  string
	}{
		{
			name:      "name on first line",
			text:      "Roy Ho\nSoftware Engineer\nroy@example.com",
			wantFirst: "Roy",
			wantLast:  "Ho",
		},
		{
			name:      "name after header lines",
			text:      "| | |\n.....\nInaya Tang\nData Analyst",
			wantFirst: "Inaya",
			wantLast:  "Tang",
		},
		{
			name:      "three token name",
			text:      "Maria de Souza\nAccountant",
			wantFirst: "Maria",
			wantLast:  "De Souza",
		},
		{
			name:      "lowercase input is title-cased",
			text:      "jane o'brien-smith\nDesigner",
			wantFirst: "Jane",
			wantLast:  "O'Brien-Smith",
		},
		{
			name:      "empty text",
			text:      "",
			wantFirst: "Unknown",
			wantLast:  "Candidate",
		},
		{
			name:      "whitespace only",
			text:      "   \n\t\n  ",
			wantFirst: "Unknown",
			wantLast:  "Candidate",
		},
		{
			name:      "everything rejected",
			text:      "Curriculum Vitae\nSkills Summary\n+1 555 0101\njane@x.io",
			wantFirst: "Unknown",
			wantLast:  "Candidate",
		},
		{
			name:      "single token never accepted",
			text:      "Madonna\nSinger Songwriter Performer Artist Extra",
			wantFirst: "Unknown",
			wantLast:  "Candidate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := ExtractName(tt.text)
			if first != tt.wantFirst || last != tt.wantLast {
				t.Errorf("ExtractName = (%q, %q), want (%q, %q)",
					first, last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestExtractNameIdempotent(t *testing.T) {
	text := "Roy Ho\nSoftware Engineer"
	f1, l1 := ExtractName(text)
	f2, l2 := ExtractName(text)
	if f1 != f2 || l1 != l2 {
		t.Errorf("ExtractName not idempotent: (%q,%q) vs (%q,%q)", f1, l1, f2, l2)
	}
}

func TestIsReasonableNameRejections(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"contains digit", "John Smith 3rd"},
		{"contains at sign", "john smith@example.com"},
		{"contains pipe", "John Smith | Engineer"},
		{"blocklisted keyword", "Professional Experience"},
		{"blocklisted keyword embedded", "John Emailer"}, // "email" substring
		{"too long", strings.Repeat("Ab ", 30)},
		{"one token", "John"},
		{"five tokens", "Aa Bb Cc Dd Ee"},
		{"short token", "J Smith"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if isReasonableName(tt.line) {
				t.Errorf("isReasonableName(%q) = true, want false", tt.line)
			}
		})
	}
}

func TestNormalizeLine(t *testing.T) {
	got := normalizeLine("  John,,  Smith-Jones  (Jr)!! ")
	want := "John Smith-Jones Jr"
	if got != want {
		t.Errorf("normalizeLine = %q, want %q", got, want)
	}
}
