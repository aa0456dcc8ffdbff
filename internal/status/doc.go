// Package status inspects sibling repositories against their GitHub remotes
// and classifies each one as pullable, diverged, up to date, or unknown.
package status
