// Package audit inspects a GitHub owner's repositories through the REST API
// and reports on documentation, marker phrases, verification files, agents
// instructions, CI workflows, and Jekyll configuration. Repository listings
// are cached for the current day and newly seen repositories are appended to
// a local registry file.
package audit
