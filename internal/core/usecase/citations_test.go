package usecase

import (
	"strings"
	"testing"

	"github.com/daveymason/cy-bee/internal/core/domain"
)

func TestExtractCitationsKeepsRankOrder(t *testing.T) {
	retrieved := interviewCorpus()

	citations := extractCitations("last row first [3], then [1], then [3] again", retrieved)
	if len(citations) != 2 {
		t.Fatalf("expected two deduplicated citations, got %v", citations)
	}
	if citations[0].RowIndex != 1 || citations[1].RowIndex != 3 {
		t.Fatalf("expected rank order regardless of answer order, got %+v", citations)
	}
}

func TestExtractCitationsIgnoresInvalidMarkers(t *testing.T) {
	retrieved := interviewCorpus()

	citations := extractCitations("see [0], [4], [99] and finally [2]", retrieved)
	if len(citations) != 1 || citations[0].RowIndex != 2 {
		t.Fatalf("expected only marker [2] to count, got %+v", citations)
	}
}

func TestExtractCitationsNoMarkers(t *testing.T) {
	if citations := extractCitations("the data does not say", interviewCorpus()); len(citations) != 0 {
		t.Fatalf("expected no citations, got %+v", citations)
	}
}

func TestExtractCitationsNothingRetrieved(t *testing.T) {
	if citations := extractCitations("made up [1]", nil); citations != nil {
		t.Fatalf("expected nil citations without retrieval, got %+v", citations)
	}
}

func TestBuildGroundedPromptNumbersByRank(t *testing.T) {
	retrieved := interviewCorpus()[:2]

	prompt := buildGroundedPrompt("What stood out?", retrieved)
	first := strings.Index(prompt, "[1] interviews.csv, Row 1")
	second := strings.Index(prompt, "[2] interviews.csv, Row 2")
	if first == -1 || second == -1 || second < first {
		t.Fatalf("expected markers in rank order, prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "likes the fast onboarding") || !strings.Contains(prompt, "dislikes the pricing page") {
		t.Fatalf("expected row texts in prompt, prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "---BEGIN DATA---") || !strings.Contains(prompt, "---END DATA---") {
		t.Fatalf("expected data markers, prompt:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Question: What stood out?") {
		t.Fatalf("expected question in prompt, prompt:\n%s", prompt)
	}
}

func TestBuildGroundedPromptWithoutRetrieval(t *testing.T) {
	prompt := buildGroundedPrompt("Anything?", nil)
	if !strings.Contains(prompt, noContextNote) {
		t.Fatalf("expected empty-retrieval note, prompt:\n%s", prompt)
	}
}
