package syncer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repofleet/repofleet/internal/syncer"
)

func TestFileDigest(t *testing.T) {
	fileSystem := newFakeFileSystem(map[string][]byte{
		"/fleet/one/ci.yml": []byte("name: ci\n"),
	})

	digest, found, digestError := syncer.FileDigest(fileSystem, "/fleet/one/ci.yml")
	require.NoError(t, digestError)
	require.True(t, found)
	require.Equal(t, syncer.BytesDigest([]byte("name: ci\n")), digest)

	_, found, digestError = syncer.FileDigest(fileSystem, "/fleet/one/absent.yml")
	require.NoError(t, digestError)
	require.False(t, found)
}

func TestCountLineEndings(t *testing.T) {
	counts := syncer.CountLineEndings([]byte("a\r\nb\nc\rd"))
	require.Equal(t, 1, counts.CRLF)
	require.Equal(t, 1, counts.LF)
	require.Equal(t, 1, counts.CR)
	require.Equal(t, "crlf=1 lf=1 cr=1", counts.String())
}

func TestLineEndingOnlyDifference(t *testing.T) {
	testCases := []struct {
		name     string
		left     string
		right    string
		expected bool
	}{
		{name: "crlf_versus_lf", left: "a\r\nb\r\n", right: "a\nb\n", expected: true},
		{name: "identical_bytes", left: "a\nb\n", right: "a\nb\n", expected: false},
		{name: "content_change", left: "a\r\nb\r\n", right: "a\nc\n", expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, syncer.LineEndingOnlyDifference([]byte(testCase.left), []byte(testCase.right)))
		})
	}
}
