package syncer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
)

const digestReadErrorTemplateConstant = "unable to hash %s: %w"

// DigestFileSystem is the read surface required for content hashing.
type DigestFileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// BytesDigest returns the hex-encoded SHA-256 digest of the provided bytes.
func BytesDigest(data []byte) string {
	digest := sha256.Sum256(data)
	return hex.EncodeToString(digest[:])
}

// FileDigest hashes the file at path. A missing file is reported through the
// found flag; any other read failure is an error.
func FileDigest(fileSystem DigestFileSystem, path string) (string, bool, error) {
	contents, readError := fileSystem.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf(digestReadErrorTemplateConstant, path, readError)
	}
	return BytesDigest(contents), true, nil
}

// LineEndingCounts tallies the terminator styles present in a byte stream.
type LineEndingCounts struct {
	CRLF int
	LF   int
	CR   int
}

// String renders the counts for drift reports.
func (counts LineEndingCounts) String() string {
	return fmt.Sprintf("crlf=%d lf=%d cr=%d", counts.CRLF, counts.LF, counts.CR)
}

// CountLineEndings tallies CRLF, bare LF, and bare CR terminators.
func CountLineEndings(data []byte) LineEndingCounts {
	counts := LineEndingCounts{}
	for index := 0; index < len(data); index++ {
		switch data[index] {
		case '\r':
			if index+1 < len(data) && data[index+1] == '\n' {
				counts.CRLF++
				index++
			} else {
				counts.CR++
			}
		case '\n':
			counts.LF++
		}
	}
	return counts
}

// LineEndingOnlyDifference reports whether two byte streams differ solely in
// their line terminators.
func LineEndingOnlyDifference(left []byte, right []byte) bool {
	if bytes.Equal(left, right) {
		return false
	}
	return bytes.Equal(normalizeLineEndings(left), normalizeLineEndings(right))
}

func normalizeLineEndings(data []byte) []byte {
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(normalized, []byte("\r"), []byte("\n"))
}
