package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/gitrepo"
)

const (
	testOwnerNameConstant      = "octocat"
	testRepositoryNameConstant = "hello-world"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name          string
		remote        string
		expectedURL   gitrepo.RemoteURL
		expectFailure bool
	}{
		{
			name:   "https_with_git_suffix",
			remote: "https://github.com/octocat/hello-world.git",
			expectedURL: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      testOwnerNameConstant,
				Repository: testRepositoryNameConstant,
			},
		},
		{
			name:   "https_without_suffix",
			remote: "https://github.com/octocat/hello-world",
			expectedURL: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolHTTPS,
				Host:       "github.com",
				Owner:      testOwnerNameConstant,
				Repository: testRepositoryNameConstant,
			},
		},
		{
			name:   "scp_style_ssh",
			remote: "git@github.com:octocat/hello-world.git",
			expectedURL: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      testOwnerNameConstant,
				Repository: testRepositoryNameConstant,
			},
		},
		{
			name:   "ssh_protocol_prefix",
			remote: "ssh://git@github.com/octocat/hello-world.git",
			expectedURL: gitrepo.RemoteURL{
				Protocol:   gitrepo.RemoteProtocolSSH,
				Host:       "github.com",
				Owner:      testOwnerNameConstant,
				Repository: testRepositoryNameConstant,
			},
		},
		{name: "empty_remote", remote: "   ", expectFailure: true},
		{name: "unsupported_protocol", remote: "ftp://github.com/octocat/hello-world", expectFailure: true},
		{name: "missing_repository_segment", remote: "https://github.com/octocat", expectFailure: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedURL, parseError := gitrepo.ParseRemoteURL(testCase.remote)
			if testCase.expectFailure {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedURL, parsedURL)
		})
	}
}

func TestRemoteURLBelongsToOwner(testInstance *testing.T) {
	remoteURL := gitrepo.RemoteURL{Owner: "OctoCat"}

	testCases := []struct {
		name           string
		candidateOwner string
		expectedMatch  bool
	}{
		{name: "exact_match", candidateOwner: "OctoCat", expectedMatch: true},
		{name: "case_insensitive_match", candidateOwner: "octocat", expectedMatch: true},
		{name: "different_owner", candidateOwner: "hubot"},
		{name: "empty_owner", candidateOwner: "  "},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMatch, remoteURL.BelongsToOwner(testCase.candidateOwner))
		})
	}
}
