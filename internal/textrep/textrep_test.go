package textrep

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/icpc-trainer/probgraph/internal/problem"
)

func TestTier(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{0, "beginner"},
		{1200, "beginner"},
		{1201, "intermediate"},
		{1600, "intermediate"},
		{2000, "advanced"},
		{2400, "expert"},
		{2401, "legendary"},
		{3500, "legendary"},
	}
	for _, tt := range tests {
		if got := Tier(tt.rating); got != tt.want {
			t.Errorf("Tier(%d) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	base := problem.Problem{
		ID:     problem.ID{Contest: 1352, Index: "C"},
		Name:   "K-th Not Divisible by n",
		Rating: 1200,
		Tags:   []string{"binary search", "math"},
	}

	tests := []struct {
		name      string
		p         problem.Problem
		statement string
		want      string
	}{
		{
			name: "metadata only",
			p:    base,
			want: "K-th Not Divisible by n | tags: binary search, math | difficulty: beginner (1200)",
		},
		{
			name:      "with statement",
			p:         base,
			statement: "You are given two positive integers.",
			want:      "K-th Not Divisible by n | tags: binary search, math | difficulty: beginner (1200) | You are given two positive integers.",
		},
		{
			name: "no tags",
			p:    problem.Problem{Name: "Watermelon", Rating: 800},
			want: "Watermelon | difficulty: beginner (800)",
		},
		{
			name: "no name and unknown rating",
			p:    problem.Problem{Tags: []string{"dp"}},
			want: "tags: dp | difficulty: beginner (0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Build(tt.p, tt.statement); got != tt.want {
				t.Errorf("Build() =\n  %q\nwant\n  %q", got, tt.want)
			}
		})
	}
}

func TestBuild_TruncatesStatement(t *testing.T) {
	p := problem.Problem{Name: "N", Rating: 1500}
	statement := strings.Repeat("é", 800)

	got := Build(p, statement)
	prefix := "N | difficulty: intermediate (1500) | "
	if !strings.HasPrefix(got, prefix) {
		t.Fatalf("unexpected prefix: %q", got[:len(prefix)])
	}
	tail := strings.TrimPrefix(got, prefix)
	if n := utf8.RuneCountInString(tail); n != MaxStatementRunes {
		t.Errorf("statement runes = %d, want %d", n, MaxStatementRunes)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a code point")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	p := problem.Problem{
		Name:   "Two Buttons",
		Rating: 1400,
		Tags:   []string{"dfs and similar", "graphs", "greedy"},
	}
	statement := "Vasya has found a strange device."

	first := Build(p, statement)
	for i := 0; i < 100; i++ {
		if got := Build(p, statement); got != first {
			t.Fatalf("call %d produced %q, want %q", i, got, first)
		}
	}
	if len(p.Tags) != 3 || p.Tags[0] != "dfs and similar" {
		t.Error("Build mutated its input")
	}
}

func TestBuildTopical(t *testing.T) {
	p := problem.Problem{Name: "Boredom", Rating: 1500, Topic: "dp"}
	want := "Boredom | topic: dp | difficulty: intermediate (1500)"
	if got := BuildTopical(p); got != want {
		t.Errorf("BuildTopical() = %q, want %q", got, want)
	}

	p.Topic = ""
	want = "Boredom | difficulty: intermediate (1500)"
	if got := BuildTopical(p); got != want {
		t.Errorf("BuildTopical() without topic = %q, want %q", got, want)
	}
}
