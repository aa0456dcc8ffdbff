// Package githubapi wraps the GitHub REST API behind a narrow inspection
// interface so audit workflows can be exercised against fakes. Requests are
// paced through a shared rate limiter.
package githubapi
