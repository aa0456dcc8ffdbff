package status_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/status"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name           string
		state          status.RepoState
		expectedStatus status.SyncStatus
	}{
		{
			name:           "negative_behind_is_unknown",
			state:          status.RepoState{Dirty: false, Behind: -1, Ahead: 2},
			expectedStatus: status.StatusUnknown,
		},
		{
			name:           "negative_ahead_is_unknown",
			state:          status.RepoState{Dirty: true, Behind: 3, Ahead: -1},
			expectedStatus: status.StatusUnknown,
		},
		{
			name:           "behind_and_ahead_diverged_clean",
			state:          status.RepoState{Dirty: false, Behind: 2, Ahead: 1},
			expectedStatus: status.StatusDiverged,
		},
		{
			name:           "behind_and_ahead_diverged_dirty",
			state:          status.RepoState{Dirty: true, Behind: 2, Ahead: 1},
			expectedStatus: status.StatusDiverged,
		},
		{
			name:           "zero_behind_is_up_to_date",
			state:          status.RepoState{Dirty: false, Behind: 0, Ahead: 0},
			expectedStatus: status.StatusUpToDate,
		},
		{
			name:           "zero_behind_with_unpushed_commits_is_up_to_date",
			state:          status.RepoState{Dirty: false, Behind: 0, Ahead: 5},
			expectedStatus: status.StatusUpToDate,
		},
		{
			name:           "zero_behind_dirty_is_up_to_date",
			state:          status.RepoState{Dirty: true, Behind: 0, Ahead: 0},
			expectedStatus: status.StatusUpToDate,
		},
		{
			name:           "behind_only_clean_is_pullable",
			state:          status.RepoState{Dirty: false, Behind: 3, Ahead: 0},
			expectedStatus: status.StatusPullable,
		},
		{
			name:           "behind_only_dirty_is_unknown",
			state:          status.RepoState{Dirty: true, Behind: 3, Ahead: 0},
			expectedStatus: status.StatusUnknown,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expectedStatus, status.Classify(testCase.state))
		})
	}
}
