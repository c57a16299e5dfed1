package pipeline

import (
	"strings"
	"unicode"
)

// Stage is a mutually exclusive pipeline position. On the remote CRM it
// is encoded as one tag among the contact's free-form tags; locally it
// is always a separate field.
type Stage string

const (
	StageNewLead            Stage = "New Lead"
	StageContacted          Stage = "Contacted"
	StageApplicationStarted Stage = "Application Started"
	StagePreApproved        Stage = "Pre-Approved"
	StageInUnderwriting     Stage = "In Underwriting"
	StageClosed             Stage = "Closed"
)

// Ordered from earliest to latest. Ties between candidate stage tags
// resolve to the higher index.
var StageOrder = []Stage{
	StageNewLead,
	StageContacted,
	StageApplicationStarted,
	StagePreApproved,
	StageInUnderwriting,
	StageClosed,
}

// Lowercased synonyms as they appear in remote tags and stage fields.
var stageSynonyms = map[string]Stage{
	"new lead":            StageNewLead,
	"new":                 StageNewLead,
	"lead":                StageNewLead,
	"contacted":           StageContacted,
	"contact made":        StageContacted,
	"application started": StageApplicationStarted,
	"application":         StageApplicationStarted,
	"app started":         StageApplicationStarted,
	"pre-approved":        StagePreApproved,
	"preapproved":         StagePreApproved,
	"pre approved":        StagePreApproved,
	"in underwriting":     StageInUnderwriting,
	"underwriting":        StageInUnderwriting,
	"closed":              StageClosed,
	"closed won":          StageClosed,
}

// Stage-bearing contact fields checked before any tag scanning, in
// priority order.
var stageFieldKeys = []string{"stage", "status", "pipelineStage"}

func ParseStage(value string) (Stage, bool) {
	stage, ok := stageSynonyms[strings.ToLower(strings.TrimSpace(value))]
	return stage, ok
}

func StageIndex(stage Stage) int {
	for i, s := range StageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// ResolveStage determines the pipeline stage for a contact's raw field
// map and tag list. Explicit stage fields win over tags; among tags the
// highest-ordered recognized synonym wins. With no signal at all a
// contact is a New Lead.
func ResolveStage(fields map[string]string, tags []string) Stage {
	for _, key := range stageFieldKeys {
		if value, ok := fields[key]; ok {
			if stage, recognized := ParseStage(value); recognized {
				return stage
			}
		}
	}

	best := -1
	for _, tag := range tags {
		stage, recognized := ParseStage(tag)
		if !recognized {
			continue
		}
		if idx := StageIndex(stage); idx > best {
			best = idx
		}
	}
	if best >= 0 {
		return StageOrder[best]
	}
	return StageNewLead
}

// IsStageTag reports whether tag is a recognized stage synonym.
func IsStageTag(tag string) bool {
	_, ok := ParseStage(tag)
	return ok
}

// LooksSystemTag flags tags the CRM generates internally: long
// alphanumeric tokens with digits, or hyphenated tokens longer than 20
// characters. These are stripped on stage transitions so they never
// accumulate on the record.
func LooksSystemTag(tag string) bool {
	if strings.ContainsAny(tag, " \t") {
		return false
	}
	if strings.Contains(tag, "-") {
		return len(tag) > 20
	}
	if len(tag) < 16 {
		return false
	}
	hasDigit := false
	for _, r := range tag {
		if unicode.IsDigit(r) {
			hasDigit = true
			continue
		}
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return hasDigit
}

// RetagForStage computes the tag set to write back when a contact moves
// to next: stage synonyms and system-looking tags are stripped, then the
// canonical stage tag is appended.
func RetagForStage(tags []string, next Stage) []string {
	out := make([]string, 0, len(tags)+1)
	for _, tag := range tags {
		if IsStageTag(tag) || LooksSystemTag(tag) {
			continue
		}
		out = append(out, tag)
	}
	return append(out, string(next))
}

// SplitTags separates a remote tag list into the derived stage and the
// surviving free-form labels.
func SplitTags(tags []string) (Stage, []string) {
	labels := make([]string, 0, len(tags))
	for _, tag := range tags {
		if IsStageTag(tag) || LooksSystemTag(tag) {
			continue
		}
		labels = append(labels, tag)
	}
	return ResolveStage(nil, tags), labels
}
