// Package syncer aligns shared files across sibling repositories by
// committing local drift back to each remote and copying an authoritative
// version over outliers.
package syncer
