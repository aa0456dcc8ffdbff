package status

// SyncStatus classifies a repository relative to its remote tracking branch.
type SyncStatus string

// Supported repository status values.
const (
	StatusPullable SyncStatus = "pullable"
	StatusDiverged SyncStatus = "diverged"
	StatusUpToDate SyncStatus = "up_to_date"
	StatusUnknown  SyncStatus = "unknown"
)

// UnknownCountSentinel marks behind/ahead counts that could not be resolved.
const UnknownCountSentinel = -1

// RepoState captures the inputs of the classification decision.
type RepoState struct {
	Dirty  bool
	Behind int
	Ahead  int
}

// Classify maps a repository state onto a SyncStatus. Decision order:
// unresolvable counts win, then divergence, then behind==0, and the remaining
// behind-only case is pullable when the worktree is clean.
func Classify(state RepoState) SyncStatus {
	if state.Behind < 0 || state.Ahead < 0 {
		return StatusUnknown
	}
	if state.Behind > 0 && state.Ahead > 0 {
		return StatusDiverged
	}
	if state.Behind == 0 {
		return StatusUpToDate
	}
	if !state.Dirty {
		return StatusPullable
	}
	return StatusUnknown
}
