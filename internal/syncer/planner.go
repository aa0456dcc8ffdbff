package syncer

import (
	"path/filepath"
	"sort"
)

// RepositoryDigest holds one repository's digest of a synchronized file.
type RepositoryDigest struct {
	RepositoryPath string
	Digest         string
	HasFile        bool
}

// RepositoryName returns the directory name used in reports and for matching
// the configured master repository.
func (digest RepositoryDigest) RepositoryName() string {
	return filepath.Base(digest.RepositoryPath)
}

// FilePlan is the advisory outcome of comparing one file across repositories.
type FilePlan struct {
	RelativePath     string
	MajorityDigest   string
	SourceRepository string
	Outliers         []RepositoryDigest
	AllAbsent        bool
	MasterFellBack   bool
	Unresolvable     bool
}

// RequiresAction reports whether the plan names outliers with a usable source.
func (plan FilePlan) RequiresAction() bool {
	return !plan.AllAbsent && !plan.Unresolvable && len(plan.Outliers) > 0
}

// CollectDigests hashes the relative file in every repository. Hashing I/O
// failures abort the run.
func CollectDigests(fileSystem DigestFileSystem, repositories []string, relativePath string) ([]RepositoryDigest, error) {
	digests := make([]RepositoryDigest, 0, len(repositories))
	for _, repositoryPath := range repositories {
		digest, found, digestError := FileDigest(fileSystem, filepath.Join(repositoryPath, relativePath))
		if digestError != nil {
			return nil, digestError
		}
		digests = append(digests, RepositoryDigest{RepositoryPath: repositoryPath, Digest: digest, HasFile: found})
	}
	return digests, nil
}

// ComputeMajorityDigest returns the most frequent digest among repositories
// holding the file. Ties resolve to the lexicographically smallest digest so
// repeated runs produce identical plans. Returns false when no repository has
// the file.
func ComputeMajorityDigest(digests []RepositoryDigest) (string, bool) {
	frequencies := map[string]int{}
	for _, digest := range digests {
		if digest.HasFile {
			frequencies[digest.Digest]++
		}
	}
	if len(frequencies) == 0 {
		return "", false
	}

	candidates := make([]string, 0, len(frequencies))
	for digest := range frequencies {
		candidates = append(candidates, digest)
	}
	sort.Strings(candidates)

	majority := candidates[0]
	for _, candidate := range candidates[1:] {
		if frequencies[candidate] > frequencies[majority] {
			majority = candidate
		}
	}
	return majority, true
}

// DetectOutliers returns the repositories that lack the file or disagree with
// the majority digest, preserving input order.
func DetectOutliers(digests []RepositoryDigest, majorityDigest string) []RepositoryDigest {
	outliers := make([]RepositoryDigest, 0)
	for _, digest := range digests {
		if !digest.HasFile || digest.Digest != majorityDigest {
			outliers = append(outliers, digest)
		}
	}
	return outliers
}

// SelectSource picks the repository whose copy of the file is authoritative.
// A configured master repository wins when it holds the file; otherwise the
// first repository carrying the majority digest is chosen. The fellBack flag
// reports a named master that had to be ignored because it lacks the file.
func SelectSource(digests []RepositoryDigest, majorityDigest string, masterRepositoryName string) (source RepositoryDigest, found bool, fellBack bool) {
	if len(masterRepositoryName) > 0 {
		for _, digest := range digests {
			if digest.RepositoryName() != masterRepositoryName {
				continue
			}
			if digest.HasFile {
				return digest, true, false
			}
			fellBack = true
			break
		}
	}
	for _, digest := range digests {
		if digest.HasFile && digest.Digest == majorityDigest {
			return digest, true, fellBack
		}
	}
	return RepositoryDigest{}, false, fellBack
}

// PlanFile assembles the full advisory plan for one relative file path.
func PlanFile(fileSystem DigestFileSystem, repositories []string, relativePath string, masterRepositoryName string) (FilePlan, error) {
	plan := FilePlan{RelativePath: relativePath}

	digests, collectError := CollectDigests(fileSystem, repositories, relativePath)
	if collectError != nil {
		return FilePlan{}, collectError
	}

	majorityDigest, hasMajority := ComputeMajorityDigest(digests)
	if !hasMajority {
		plan.AllAbsent = true
		return plan, nil
	}
	plan.MajorityDigest = majorityDigest

	plan.Outliers = DetectOutliers(digests, majorityDigest)
	if len(plan.Outliers) == 0 {
		return plan, nil
	}

	source, sourceFound, fellBack := SelectSource(digests, majorityDigest, masterRepositoryName)
	plan.MasterFellBack = fellBack
	if !sourceFound {
		plan.Unresolvable = true
		return plan, nil
	}
	plan.SourceRepository = source.RepositoryPath
	return plan, nil
}
