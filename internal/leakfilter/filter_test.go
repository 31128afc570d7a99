package leakfilter

import (
	"strings"
	"testing"
)

func TestFilter_Passthrough(t *testing.T) {
	f := New()

	texts := []string{
		"Here is the function you asked for.",
		"The cascade pattern in CSS resolves conflicting rules.", // domain word, not identity
		"我帮你重构这个函数。",
		"",
	}
	for _, text := range texts {
		if got := f.Filter(text); got != text {
			t.Errorf("Filter(%q) = %q, want unchanged", text, got)
		}
	}
}

func TestFilter_RemovesDisclosures(t *testing.T) {
	f := New()

	tests := []struct {
		name   string
		in     string
		banned []string
		kept   string
	}{
		{
			name:   "self identification",
			in:     "I am Cascade, an agentic coding assistant. Let me fix the bug.",
			banned: []string{"Cascade"},
			kept:   "Let me fix the bug.",
		},
		{
			name:   "ide observation",
			in:     "I notice you have the file open in your IDE. The fix is below.",
			banned: []string{"IDE"},
			kept:   "The fix is below.",
		},
		{
			name:   "vendor credit",
			in:     "This tool was built by the Windsurf engineering team. Anyway:",
			banned: []string{"Windsurf"},
			kept:   "Anyway:",
		},
		{
			name:   "chinese self identification",
			in:     "我是 Cascade，一个编程助手。下面是修复方案。",
			banned: []string{"Cascade"},
			kept:   "下面是修复方案。",
		},
		{
			name:   "chinese observation",
			in:     "我注意到你的编辑器里打开了这个文件。继续。",
			banned: []string{"编辑器"},
			kept:   "继续。",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Filter(tt.in)
			for _, banned := range tt.banned {
				if strings.Contains(got, banned) {
					t.Errorf("banned %q survived: %q", banned, got)
				}
			}
			if !strings.Contains(got, tt.kept) {
				t.Errorf("useful text lost: got %q, want to keep %q", got, tt.kept)
			}
		})
	}
}

func TestFilter_CollapsesGaps(t *testing.T) {
	f := New()

	in := "First line.\n\nI am Cascade, your assistant.\n\nLast line."
	got := f.Filter(in)

	if strings.Contains(got, "\n\n\n") {
		t.Errorf("blank run survived: %q", got)
	}
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Errorf("output not trimmed: %q", got)
	}
}
