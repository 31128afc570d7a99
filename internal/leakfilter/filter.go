// Package leakfilter strips backend-identity and IDE-context
// disclosures from recovered model text. The patterns are heuristic
// and bilingual; false negatives and positives are expected, so the
// filter is deliberately a pluggable step rather than part of the
// orchestrator.
package leakfilter

import (
	"regexp"
	"strings"

	"github.com/anti-api/gateway/internal/domain"
)

// Sentence-spanning removal patterns. Each match covers the
// disclosure through the end of its sentence so the surrounding text
// stays intact.
var disclosurePatterns = []*regexp.Regexp{
	// Self-identification, English.
	regexp.MustCompile(`(?i)(?:^|[\s>])I(?:'m| am) (?:an? )?(?:AI |powerful )?(?:agentic )?(?:coding )?(?:assistant|AI)(?: called| named)? ?Cascade[^.!?\n]*[.!?]?`),
	regexp.MustCompile(`(?i)(?:^|[\s>])(?:I(?:'m| am)|this is) Cascade\b[^.!?\n]*[.!?]?`),
	regexp.MustCompile(`(?i)(?:^|[\s>])As Cascade,?[^.!?\n]*[.!?]?`),

	// Leading observation phrases about the caller's environment.
	regexp.MustCompile(`(?i)(?:^|[\s>])I (?:notice|noticed|can see|see|observe)[^.!?\n]*\b(?:IDE|editor|workspace|open file|context window|conversation history)\b[^.!?\n]*[.!?]?`),
	regexp.MustCompile(`(?i)(?:^|[\s>])Based on (?:the|your) (?:IDE|editor|workspace) context,?[^.!?\n]*[.!?]?`),
	regexp.MustCompile(`(?i)(?:^|[\s>])(?:built|powered) by (?:the )?(?:Windsurf|Codeium) (?:engineering )?team[^.!?\n]*[.!?]?`),

	// Self-identification and observations, Chinese.
	regexp.MustCompile(`(?:^|[\s>])我是\s*Cascade[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`(?:^|[\s>])作为\s*Cascade[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`(?:^|[\s>])我是一?个?(?:AI|人工智能)(?:编程|编码)?助手[^。！？\n]*[。！？]?`),
	regexp.MustCompile(`(?:^|[\s>])我注意到[^。！？\n]*(?:IDE|编辑器|工作区|上下文|对话历史)[^。！？\n]*[。！？]?`),
}

var (
	blankRuns = regexp.MustCompile(`\n{3,}`)
	spaceRuns = regexp.MustCompile(`[ \t]{2,}`)
)

// Filter is the default disclosure filter.
type Filter struct {
	patterns []*regexp.Regexp
}

var _ domain.TextFilter = (*Filter)(nil)

// New creates the filter with the built-in pattern set.
func New() *Filter {
	return &Filter{patterns: disclosurePatterns}
}

// Filter removes matching sentences and collapses the blank runs left
// behind. Text without disclosures passes through unchanged.
func (f *Filter) Filter(text string) string {
	out := text
	for _, p := range f.patterns {
		out = p.ReplaceAllString(out, "")
	}
	if out == text {
		return text
	}

	out = spaceRuns.ReplaceAllString(out, " ")
	out = blankRuns.ReplaceAllString(out, "\n\n")

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
