package retrieval

import "regexp"

// Module-level registries: tokenization stop-words, the warp/physics focus
// set, path boosts/penalties, and format-decision regexes are built once at
// package init and never mutated at runtime, per §9 Design Notes
// ("Module-level registries... Keep them as compile-time constants or load
// once at startup into immutable tables; runtime code MUST NOT mutate
// them").

// stopWords are dropped from the derived query, per spec §4.3 step 2.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "does": true,
	"for": true, "how": true, "in": true, "is": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true,
	"to": true, "with": true, "system": true, "solve": true,
	"solves": true, "solver": true, "solution": true,
}

// warpFocusSet is the physics/warp focus vocabulary from spec §4.3 step 3.
// If any derived token is in this set, only focus tokens are kept.
var warpFocusSet = map[string]bool{
	"warp": true, "bubble": true, "alcubierre": true, "natario": true,
	"geometry": true, "metric": true, "sdf": true,
}

// pathBoost is one deterministic path-boost or noise-penalty entry. Pattern
// is matched against a file's path with Contains for plain strings or
// MatchString when Regex is set.
type pathBoost struct {
	Pattern string
	Regex   *regexp.Regexp
	Score   int
}

// basePathBoosts are the ENUMERATED deterministic path boosts from spec
// §4.3, applied unconditionally.
var basePathBoosts = []pathBoost{
	{Pattern: "docs/helix-ask-flow.md", Score: 10},
	{Pattern: "client/", Regex: regexp.MustCompile(`client/.*helixaskpill`), Score: 8},
	{Pattern: "desktop", Score: 6},
	{Pattern: "server/routes/agi.plan", Score: 6},
	{Pattern: "server/skills/llm.local", Score: 4},
}

// noisePenalties are the ENUMERATED noise penalties from spec §4.3.
var noisePenalties = []pathBoost{
	{Pattern: "docs/SMOKE.md", Score: -6},
}

// warpPathBoosts are applied in addition to basePathBoosts when the
// question has warp focus, per spec §4.3.
var warpPathBoosts = []pathBoost{
	{Pattern: "modules/warp", Score: 8},
	{Regex: regexp.MustCompile(`natario-warp|warp-module|warp-theta`), Score: 6},
	{Regex: regexp.MustCompile(`warp-pipeline|energy-pipeline`), Score: 4},
}

// matchScore returns the boost's score if path matches its pattern/regex,
// else 0.
func (b pathBoost) matchScore(path string) int {
	if b.Regex != nil {
		if b.Regex.MatchString(path) {
			return b.Score
		}
		return 0
	}
	if containsFold(path, b.Pattern) {
		return b.Score
	}
	return 0
}

// Format-decision regexes from spec §4.3.
var (
	scientificMethodRe = regexp.MustCompile(`scientific method|methodology|method`)
	stepIntentRe       = regexp.MustCompile(`\b(steps?|how\s+to|walk\s+me\s+through|step[- ]by[- ]step)\b`)
	comparativeRe      = regexp.MustCompile(`compare|versus|vs\.?\b|difference|better|worse|advantages|what is|what's|why is|how is`)
)

// scaffoldLinePrefixes are enumerated raw-output lines stripped during
// sanitation (spec §4.3 "Post-generation sanitation").
var scaffoldLinePrefixes = []string{
	"Use only the evidence",
	"Answer in",
	"Do not include stage tags",
	"Cite sources as",
	"Follow the format below",
}

var stageTagRe = regexp.MustCompile(`\(observe\|hypothesis\|experiment\|analysis\|explain\)|\((observe|hypothesis|experiment|analysis|explain)\)\s*$`)
