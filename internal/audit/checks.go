package audit

import (
	"path"
	"regexp"
	"strings"

	"github.com/repofleet/repofleet/internal/githubapi"
)

const (
	headingPrefixConstant           = "#"
	headingSampleLimitConstant      = 10
	verificationFilePatternConstant = "google*.html"
	agentsFileNameConstant          = "AGENTS.md"
	copilotInstructionsNameConstant = "copilot-instructions.md"
	copilotInstructionsPathConstant = ".github/copilot-instructions.md"
	workflowsDirectoryPathConstant  = ".github/workflows"
	jekyllConfigFileNameConstant    = "_config.yml"
	directoryEntryFileTypeConstant  = "file"
)

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]"']+`)

// FindMarkers scans the readme line by line for the configured patterns. Each
// line contributes at most one occurrence, attributed to the first matching
// pattern.
func FindMarkers(content string, patterns []string) MarkerCheck {
	check := MarkerCheck{MatchedPatterns: []string{}, Occurrences: []MarkerOccurrence{}}
	matched := map[string]bool{}
	for lineIndex, line := range strings.Split(content, "\n") {
		for _, pattern := range patterns {
			if !strings.Contains(line, pattern) {
				continue
			}
			if !matched[pattern] {
				matched[pattern] = true
				check.MatchedPatterns = append(check.MatchedPatterns, pattern)
			}
			check.Occurrences = append(check.Occurrences, MarkerOccurrence{
				Line: lineIndex + 1,
				Text: strings.TrimSpace(line),
			})
			break
		}
	}
	check.Found = len(check.MatchedPatterns) > 0
	return check
}

// AnalyzeReadme computes character, line, heading, and distinct URL counts
// for a readme document.
func AnalyzeReadme(content string) ReadmeMetrics {
	lines := strings.Split(content, "\n")
	metrics := ReadmeMetrics{
		CharacterCount: len([]rune(content)),
		LineCount:      len(lines),
		Headings:       []string{},
	}
	for _, line := range lines {
		if len(strings.TrimSpace(line)) > 0 {
			metrics.NonEmptyLines++
		}
		if strings.HasPrefix(line, headingPrefixConstant) {
			metrics.HeadingCount++
			if len(metrics.Headings) < headingSampleLimitConstant {
				metrics.Headings = append(metrics.Headings, strings.TrimSpace(line))
			}
		}
	}
	distinctURLs := map[string]bool{}
	for _, url := range urlPattern.FindAllString(content, -1) {
		distinctURLs[url] = true
	}
	metrics.URLCount = len(distinctURLs)
	return metrics
}

// CheckVerificationHTML reports root files matching google*.html, compared
// case-insensitively.
func CheckVerificationHTML(rootEntries []githubapi.DirectoryEntry) FileMatchCheck {
	check := FileMatchCheck{Files: []string{}}
	for _, entry := range rootEntries {
		if entry.Type != directoryEntryFileTypeConstant {
			continue
		}
		if matches, _ := path.Match(verificationFilePatternConstant, strings.ToLower(entry.Name)); matches {
			check.Files = append(check.Files, entry.Name)
		}
	}
	check.Found = len(check.Files) > 0
	return check
}

// CheckWorkflowFiles reports yml/yaml files among workflow directory entries.
func CheckWorkflowFiles(workflowEntries []githubapi.DirectoryEntry) FileMatchCheck {
	check := FileMatchCheck{Files: []string{}}
	for _, entry := range workflowEntries {
		if entry.Type != directoryEntryFileTypeConstant {
			continue
		}
		if strings.HasSuffix(entry.Name, ".yml") || strings.HasSuffix(entry.Name, ".yaml") {
			check.Files = append(check.Files, entry.Name)
		}
	}
	check.Found = len(check.Files) > 0
	return check
}

// CheckJekyllConfig reports whether _config.yml sits at the repository root.
func CheckJekyllConfig(rootEntries []githubapi.DirectoryEntry) bool {
	for _, entry := range rootEntries {
		if entry.Type == directoryEntryFileTypeConstant && entry.Name == jekyllConfigFileNameConstant {
			return true
		}
	}
	return false
}
