package vision

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxDescriptionRunes = 200

var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^okay[,.]?\s*`),
	regexp.MustCompile(`(?im)^here'?s?\s*(the|an|my)?\s*(analysis|output)?[:.]*\s*`),
	regexp.MustCompile(`(?im)^let'?s\s+analyze[:.]*\s*`),
	regexp.MustCompile(`(?im)^based on\s+.*?[,:]\s*`),
	regexp.MustCompile(`(?im)^looking at\s+.*?[,:]\s*`),
	regexp.MustCompile(`(?im)^\*\*analysis:?\*\*\s*`),
	regexp.MustCompile(`(?im)^\*\*output:?\*\*\s*`),
	regexp.MustCompile(`(?im)^##?\s*(analysis|output|summary)[:.]*\s*`),
}

var (
	bulletRe     = regexp.MustCompile(`^[-*•]\s*`)
	boldRe       = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	labelBlockRe = regexp.MustCompile(`\[([^\]]+)\]\s*$`)
	quoteRe      = regexp.MustCompile(`^["']|["']$`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Clean strips model chatter from a raw answer and splits the trailing
// "[Label, Label]" block off the description.
func Clean(raw string) Result {
	text := strings.TrimSpace(raw)
	for _, re := range preamblePatterns {
		text = re.ReplaceAllString(text, "")
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch line {
		case "", "-", "*", "•", "—":
			continue
		}
		line = bulletRe.ReplaceAllString(line, "")
		line = boldRe.ReplaceAllString(line, "$1")
		lines = append(lines, line)
	}

	chosen := ""
	for _, line := range lines {
		if strings.Contains(line, "[") && strings.Contains(line, "]") {
			chosen = line
			break
		}
	}
	if chosen == "" && len(lines) > 0 {
		chosen = lines[0]
	}

	chosen = quoteRe.ReplaceAllString(strings.TrimSpace(chosen), "")
	res := Result{Raw: raw}
	if m := labelBlockRe.FindStringSubmatchIndex(chosen); m != nil {
		res.Labels = parseLabels(chosen[m[2]:m[3]])
		chosen = chosen[:m[0]]
	}
	res.Description = normalize(chosen)
	return res
}

func parseLabels(block string) []string {
	var labels []string
	for _, l := range strings.Split(block, ",") {
		l = strings.TrimSpace(l)
		switch strings.ToLower(l) {
		case "", "genel", "general":
			continue
		}
		labels = append(labels, l)
	}
	return labels
}

func normalize(s string) string {
	s = strings.TrimSpace(s)
	s = quoteRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) > maxDescriptionRunes {
		r := []rune(s)
		s = string(r[:maxDescriptionRunes-3]) + "..."
	}
	return s
}
