package pipeline

import (
	"testing"
)

func TestResolveStageFromTags(t *testing.T) {
	tags := []string{"cold", "Pre-Approved", "randomSystemTag123456789"}
	stage := ResolveStage(nil, tags)
	if stage != StagePreApproved {
		t.Fatalf("expected %s, got %s", StagePreApproved, stage)
	}
}

func TestResolveStageDefault(t *testing.T) {
	if stage := ResolveStage(nil, nil); stage != StageNewLead {
		t.Fatalf("expected default %s, got %s", StageNewLead, stage)
	}
	if stage := ResolveStage(map[string]string{}, []string{"cold", "vip"}); stage != StageNewLead {
		t.Fatalf("expected default %s for unrecognized tags, got %s", StageNewLead, stage)
	}
}

func TestResolveStageFieldWinsOverTags(t *testing.T) {
	fields := map[string]string{"status": "contacted"}
	tags := []string{"Closed"}
	if stage := ResolveStage(fields, tags); stage != StageContacted {
		t.Fatalf("explicit field should win, got %s", stage)
	}
}

func TestResolveStageFieldPriority(t *testing.T) {
	fields := map[string]string{
		"stage":         "in underwriting",
		"status":        "contacted",
		"pipelineStage": "closed",
	}
	if stage := ResolveStage(fields, nil); stage != StageInUnderwriting {
		t.Fatalf("stage field should win over status, got %s", stage)
	}
}

func TestResolveStageTieBreak(t *testing.T) {
	tags := []string{"contacted", "pre-approved"}
	if stage := ResolveStage(nil, tags); stage != StagePreApproved {
		t.Fatalf("higher stage index should win, got %s", stage)
	}
}

func TestLooksSystemTag(t *testing.T) {
	cases := []struct {
		tag  string
		want bool
	}{
		{"randomSystemTag123456789", true},
		{"a1b2c3d4e5f6g7h8", true},
		{"campaign-automation-2024-q3", true},
		{"Pre-Approved", false},
		{"cold", false},
		{"first-time buyer", false},
		{"rate lock", false},
	}
	for _, tc := range cases {
		if got := LooksSystemTag(tc.tag); got != tc.want {
			t.Fatalf("LooksSystemTag(%q) = %v, want %v", tc.tag, got, tc.want)
		}
	}
}

func TestRetagForStage(t *testing.T) {
	tags := []string{"cold", "Pre-Approved", "randomSystemTag123456789"}
	got := RetagForStage(tags, StageClosed)

	want := map[string]bool{"cold": true, "Closed": true}
	if len(got) != len(want) {
		t.Fatalf("unexpected tag set: %v", got)
	}
	for _, tag := range got {
		if !want[tag] {
			t.Fatalf("unexpected tag %q in %v", tag, got)
		}
	}
}

func TestRetagForStageCaseInsensitive(t *testing.T) {
	got := RetagForStage([]string{"CONTACTED", "warm"}, StageApplicationStarted)
	for _, tag := range got {
		if tag == "CONTACTED" {
			t.Fatalf("stage synonym should be stripped regardless of case: %v", got)
		}
	}
	if got[len(got)-1] != string(StageApplicationStarted) {
		t.Fatalf("canonical stage tag should be appended last: %v", got)
	}
}

func TestSplitTags(t *testing.T) {
	stage, labels := SplitTags([]string{"vip", "In Underwriting", "sysGenerated00112233"})
	if stage != StageInUnderwriting {
		t.Fatalf("expected %s, got %s", StageInUnderwriting, stage)
	}
	if len(labels) != 1 || labels[0] != "vip" {
		t.Fatalf("expected labels [vip], got %v", labels)
	}
}
