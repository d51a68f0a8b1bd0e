package retrieval

import (
	"sort"
	"strings"

	"github.com/helixask/helixaskd/pkg/models"
)

// scoredFile pairs a file with its score and original index, so that
// stable sorts preserve determinism (spec §4.3 "Determinism requirement").
type scoredFile struct {
	file  models.KnowledgeFile
	score int
	index int
}

// tokenHits counts how many tokens occur (case-insensitively, substring)
// in any of the given haystacks.
func tokenHits(tokens []string, haystacks ...string) int {
	folded := make([]string, len(haystacks))
	for i, h := range haystacks {
		folded[i] = strings.ToLower(h)
	}
	hits := 0
	for _, tok := range tokens {
		for _, h := range folded {
			if strings.Contains(h, tok) {
				hits++
				break
			}
		}
	}
	return hits
}

// scorePatchFiles sums the file-level +3-per-token-hit contribution of a
// patch's files, part of the patch score in spec §4.3.
func scorePatchFiles(tokens []string, files []models.KnowledgeFile) int {
	score := 0
	for _, f := range files {
		if tokenHits(tokens, f.Path, f.Name, f.Preview) > 0 {
			score += 3 * tokenHits(tokens, f.Path, f.Name, f.Preview)
		}
	}
	return score
}

// ScorePatch implements spec §4.3's patch scoring: +2 per token found in
// summary|label|mode, +3 per token found in any file's path|name|preview.
func ScorePatch(tokens []string, patch models.ResonancePatch) int {
	score := 2 * tokenHits(tokens, patch.Summary, patch.Label, patch.ModeLabel)
	score += scorePatchFiles(tokens, patch.Knowledge.Files)
	return score
}

// SelectPatch picks the best-scoring patch from the bundle, unless a
// collapse names a primaryPatchId that scores > 0 — spec §4.3: "Select the
// best-scoring patch unless a primaryPatchId matches AND has score > 0 — in
// that case prefer the selection."
func SelectPatch(tokens []string, bundle *models.ResonanceBundle) (models.ResonancePatch, int, bool) {
	if bundle == nil || len(bundle.Candidates) == 0 {
		return models.ResonancePatch{}, 0, false
	}

	type candidate struct {
		patch models.ResonancePatch
		score int
		index int
	}
	scored := make([]candidate, len(bundle.Candidates))
	for i, p := range bundle.Candidates {
		scored[i] = candidate{patch: p, score: ScorePatch(tokens, p), index: i}
	}

	best := scored[0]
	for _, c := range scored[1:] {
		if c.score > best.score || (c.score == best.score && c.index < best.index) {
			best = c
		}
	}

	if bundle.Collapse != nil && bundle.Collapse.PrimaryPatchID != "" {
		for _, c := range scored {
			if c.patch.ID == bundle.Collapse.PrimaryPatchID && c.score > 0 {
				return c.patch, c.score, true
			}
		}
	}

	return best.patch, best.score, best.score > 0
}

// ScoreFile implements spec §4.3's file scoring: +2 per token hit in
// path|name|preview, plus deterministic path boosts/penalties, plus warp
// boosts when warpFocus is set.
func ScoreFile(tokens []string, file models.KnowledgeFile, warpFocus bool) int {
	score := 2 * tokenHits(tokens, file.Path, file.Name, file.Preview)

	path := strings.ToLower(file.Path)
	for _, b := range basePathBoosts {
		score += b.matchScore(path)
	}
	for _, p := range noisePenalties {
		score += p.matchScore(path)
	}
	if warpFocus {
		for _, b := range warpPathBoosts {
			score += b.matchScore(path)
		}
	}
	return score
}

// SelectFiles returns the top-K files by score, in stable descending-score
// order (ties broken by original index for determinism). When
// requireMatch is true, files scoring <= 0 are excluded entirely.
func SelectFiles(tokens []string, files []models.KnowledgeFile, k int, requireMatch, warpFocus bool) []models.KnowledgeFile {
	scored := make([]scoredFile, 0, len(files))
	for i, f := range files {
		s := ScoreFile(tokens, f, warpFocus)
		if requireMatch && s <= 0 {
			continue
		}
		scored = append(scored, scoredFile{file: f, score: s, index: i})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].index < scored[j].index
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}

	out := make([]models.KnowledgeFile, len(scored))
	for i, sf := range scored {
		out[i] = sf.file
	}
	return out
}
