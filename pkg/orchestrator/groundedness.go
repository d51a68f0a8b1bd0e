package orchestrator

import "regexp"

// repoGroundedRe is the enumerated regex set from spec §4.4 step 3: file
// extensions and repo/system vocabulary that indicate a question is
// "repo-grounded" rather than general.
var repoGroundedRe = regexp.MustCompile(
	`(?i)\.(go|ts|tsx|js|jsx|py|rs|java|md|yaml|yml|json)\b|\b(repo|repository|module|package|function|file|codebase|pipeline|solver|config|endpoint|route|handler)\b`,
)

// IsRepoGrounded reports whether the question text matches the repo-grounded
// vocabulary, deciding between the grounded and general prompt paths.
func IsRepoGrounded(question string) bool {
	return repoGroundedRe.MatchString(question)
}
