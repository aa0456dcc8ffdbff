// Package gitrepo contains helpers for interrogating and manipulating Git repositories.
//
// It exposes RepositoryManager for inspecting branches, remotes, and status,
// along with remote URL parsing utilities consumed by the status, sync, and
// verify services that need structured Git operations.
package gitrepo
