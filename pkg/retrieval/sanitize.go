package retrieval

import (
	"strings"
)

const (
	answerStartMarker = "ANSWER_START"
	answerEndMarker   = "ANSWER_END"
	finalMarker       = "FINAL:"
	questionPrefix    = "Question:"
)

// Sanitize implements spec §4.3's post-generation sanitation: strip the
// echoed question, extract the answer region between markers, drop scaffold
// lines, and strip trailing stage tags when they weren't requested.
func Sanitize(raw, originalQuestion string, stageTagsRequested bool) string {
	text := raw

	if start := strings.Index(text, answerStartMarker); start != -1 {
		rest := text[start+len(answerStartMarker):]
		if end := strings.Index(rest, answerEndMarker); end != -1 {
			text = rest[:end]
		} else {
			text = rest
		}
	} else if idx := strings.LastIndex(text, finalMarker); idx != -1 {
		text = text[idx+len(finalMarker):]
	}

	text = stripEchoedQuestion(text, originalQuestion)
	text = stripScaffoldLines(text)

	if !stageTagsRequested {
		text = stripTrailingStageTag(text)
	}

	return strings.TrimSpace(text)
}

// stripEchoedQuestion removes a leading "Question: <...>" echo and a
// verbatim repetition of the original question text.
func stripEchoedQuestion(text, question string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, questionPrefix) {
			continue
		}
		if question != "" && trimmed == strings.TrimSpace(question) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// stripScaffoldLines drops lines matching the enumerated instruction-scaffold
// prefixes from spec §4.3, which sometimes leak into raw model output.
func stripScaffoldLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		scaffold := false
		for _, prefix := range scaffoldLinePrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				scaffold = true
				break
			}
		}
		if scaffold {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// stripTrailingStageTag removes a trailing stage-tag marker such as
// "(observe)" when the format decision did not request stage tags.
func stripTrailingStageTag(text string) string {
	trimmed := strings.TrimRight(text, " \t\n")
	loc := stageTagRe.FindStringIndex(trimmed)
	if loc == nil || loc[1] != len(trimmed) {
		return text
	}
	return trimmed[:loc[0]]
}
