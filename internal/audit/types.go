package audit

import "time"

// MarkerOccurrence records a readme line containing a configured marker pattern.
type MarkerOccurrence struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// MarkerCheck reports marker pattern matches inside the readme.
type MarkerCheck struct {
	Found           bool               `json:"found"`
	MatchedPatterns []string           `json:"matched_patterns"`
	Occurrences     []MarkerOccurrence `json:"occurrences"`
}

// ReadmeMetrics summarizes the structure of a readme document.
type ReadmeMetrics struct {
	CharacterCount int      `json:"char_count"`
	LineCount      int      `json:"line_count"`
	NonEmptyLines  int      `json:"non_empty_lines"`
	HeadingCount   int      `json:"heading_count"`
	Headings       []string `json:"headings"`
	URLCount       int      `json:"url_count"`
}

// FileMatchCheck reports whether any file matched a check along with the
// matching names.
type FileMatchCheck struct {
	Found bool     `json:"found"`
	Files []string `json:"files"`
}

// RepositoryAudit is the per-repository result document.
type RepositoryAudit struct {
	Name             string          `json:"repo_name"`
	FullName         string          `json:"full_name"`
	HTMLURL          string          `json:"html_url"`
	Description      string          `json:"description"`
	Language         string          `json:"language"`
	PushedAt         time.Time       `json:"pushed_at"`
	CreatedAt        time.Time       `json:"created_at"`
	Stars            int             `json:"stars"`
	IsFork           bool            `json:"is_fork"`
	IsArchived       bool            `json:"is_archived"`
	ReadmeExists     bool            `json:"readme_exists"`
	ReadmeMetrics    *ReadmeMetrics  `json:"readme_analysis"`
	Markers          MarkerCheck     `json:"markers"`
	VerificationHTML FileMatchCheck  `json:"verification_html"`
	AgentsFiles      FileMatchCheck  `json:"agents_files"`
	Workflows        FileMatchCheck  `json:"workflows_yml"`
	JekyllConfig     bool            `json:"jekyll_config"`
	CheckPaths       map[string]bool `json:"check_paths,omitempty"`
}

// ReportDocument is the JSON document written when an output path is configured.
type ReportDocument struct {
	GeneratedAt  string            `json:"generated_at"`
	Owner        string            `json:"owner"`
	Total        int               `json:"total_repositories"`
	Repositories []RepositoryAudit `json:"repositories"`
}
