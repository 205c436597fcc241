package identity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Resume files must look like app_pcf_1393_55317_0.pdf: literal app_
// prefix, letters-only source tag, then job number, resume number and
// attempt index.
var filenameRE = regexp.MustCompile(`^(app_([A-Za-z]+)_(\d+)_(\d+)_(\d+))\.pdf$`)

var (
	nonNameCharsRE = regexp.MustCompile(`[^A-Za-z\s\-']`)
	whitespaceRE   = regexp.MustCompile(`\s+`)
)

// Lines containing these terms are resume section headers, not names.
var badKeywords = []string{
	"summary", "experience", "education", "skills", "certifications", "projects",
	"profile", "objective", "contact", "portfolio", "linkedin",
	"phone", "email", "address", "curriculum", "vitae", "resume", "cv",
}

// FileInfo is the structured form of a resume filename.
type FileInfo struct {
	Stem     string // full matched stem, unique per physical file (external id)
	Prefix   string
	JobID    string
	ResumeID string
	Index    string

	// ProfileID is prefix_resume: stable across physical copies of the
	// same resume, independent of the attempt index.
	ProfileID string
}

// ParseFilename parses a candidate PDF filename. Any deviation from the
// pattern is a hard failure; no partial recovery is attempted.
func ParseFilename(name string) (*FileInfo, error) {
	m := filenameRE.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("bad filename format: %s", name)
	}
	return &FileInfo{
		Stem:      m[1],
		Prefix:    m[2],
		JobID:     m[3],
		ResumeID:  m[4],
		Index:     m[5],
		ProfileID: m[2] + "_" + m[4],
	}, nil
}

// SyntheticEmail derives a deterministic, content-addressed address from the
// file stem. It is never read from the document, so it cannot collide with a
// real person's address, and re-running on the same file always yields the
// same value.
func SyntheticEmail(stem, prefix, domain string) string {
	return fmt.Sprintf("%s-%s@%s", prefix, stem, domain)
}

// ExtractName guesses a (first, last) pair from first-page resume text. It
// is a best-effort heuristic, not an NLP solution: the first line usually
// holds the name, so it is tried first, then the next lines up to twenty.
// The function is total — any input, including empty text, yields a pair,
// falling back to ("Unknown", "Candidate").
func ExtractName(text string) (string, string) {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) == 0 {
		return "Unknown", "Candidate"
	}

	if isReasonableName(lines[0]) {
		return splitName(lines[0])
	}
	limit := len(lines)
	if limit > 20 {
		limit = 20
	}
	for _, ln := range lines[:limit] {
		if isReasonableName(ln) {
			return splitName(ln)
		}
	}
	return "Unknown", "Candidate"
}

// isReasonableName reports whether a line plausibly holds a person's name:
// short, free of digits, emails and layout pipes, not a section header, and
// 2-4 tokens of at least two letters once punctuation is stripped.
func isReasonableName(line string) bool {
	if line == "" || len(line) > 60 {
		return false
	}
	if strings.ContainsAny(line, "@|") {
		return false
	}
	for _, r := range line {
		if unicode.IsDigit(r) {
			return false
		}
	}
	low := strings.ToLower(line)
	for _, k := range badKeywords {
		if strings.Contains(low, k) {
			return false
		}
	}
	parts := strings.Fields(normalizeLine(line))
	if len(parts) < 2 || len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if len(p) < 2 {
			return false
		}
	}
	return true
}

// normalizeLine keeps letters, spaces, hyphens and apostrophes, collapsing
// everything else into single spaces.
func normalizeLine(line string) string {
	line = nonNameCharsRE.ReplaceAllString(line, " ")
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(line, " "))
}

func splitName(line string) (string, string) {
	parts := strings.Fields(normalizeLine(line))
	return title(parts[0]), title(strings.Join(parts[1:], " "))
}

// title capitalizes the letter following any non-letter and lowercases the
// rest, so "o'brien-SMITH" becomes "O'Brien-Smith".
func title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}
