// Package verify performs a read-only hash comparison of shared files across
// sibling repositories and reports any drift without touching git remotes.
package verify
