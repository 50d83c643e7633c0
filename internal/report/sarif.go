package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/dusk-indust/ldf/internal/spec"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	toolName     = "ldf"
	toolInfoURI  = "https://github.com/dusk-indust/ldf"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
	Properties       sarifProps   `json:"properties"`
}

type sarifProps struct {
	Rule string `json:"ldfRule,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// WriteSARIF renders the report as a SARIF 2.1.0 log with one run. Each
// finding kind becomes a reporting rule.
func WriteSARIF(w io.Writer, res Result, opts Options) error {
	specsDir := opts.SpecsDir
	if specsDir == "" {
		specsDir = ".ldf/specs"
	}

	kinds := make(map[spec.FindingKind]string)
	for _, f := range res.Report.Findings {
		if _, ok := kinds[f.Kind]; !ok {
			kinds[f.Kind] = f.Rule
		}
	}
	ids := make([]string, 0, len(kinds))
	for k := range kinds {
		ids = append(ids, string(k))
	}
	sort.Strings(ids)
	ruleIndex := make(map[string]int, len(ids))
	rules := make([]sarifRule, len(ids))
	for i, id := range ids {
		ruleIndex[id] = i
		rules[i] = sarifRule{
			ID:               id,
			ShortDescription: sarifMessage{Text: kindDescription(spec.FindingKind(id))},
			Properties:       sarifProps{Rule: kinds[spec.FindingKind(id)]},
		}
	}

	results := make([]sarifResult, 0, len(res.Report.Findings))
	for _, f := range res.Report.Findings {
		r := sarifResult{
			RuleID:    string(f.Kind),
			RuleIndex: ruleIndex[string(f.Kind)],
			Level:     sarifLevel(f.Severity),
			Message:   sarifMessage{Text: f.Message},
		}
		if f.Location.Doc != "" {
			loc := sarifLocation{PhysicalLocation: sarifPhysical{
				ArtifactLocation: sarifArtifact{URI: path.Join(specsDir, f.Spec, f.Location.Doc.FileName())},
			}}
			if f.Location.Line > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: f.Location.Line}
			}
			r.Locations = []sarifLocation{loc}
		}
		results = append(results, r)
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           toolName,
				Version:        opts.Version,
				InformationURI: toolInfoURI,
				Rules:          rules,
			}},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(log); err != nil {
		return fmt.Errorf("encode sarif: %w", err)
	}
	return nil
}

func sarifLevel(sev spec.Severity) string {
	switch sev {
	case spec.SeverityError:
		return "error"
	case spec.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

var kindDescriptions = map[spec.FindingKind]string{
	spec.KindMissingSection:              "A required section is missing",
	spec.KindMissingDocument:             "A spec document is missing",
	spec.KindUnfilledTemplateMarker:      "Template placeholder left in the document",
	spec.KindMalformedMarkdown:           "Markdown structure could not be read",
	spec.KindGuardrailNotCovered:         "Guardrail is not covered by the spec",
	spec.KindGuardrailNAWithoutReason:    "Guardrail marked N/A without a justification",
	spec.KindGuardrailNameMismatch:       "Coverage row name disagrees with its guardrail id",
	spec.KindUnknownGuardrail:            "Coverage row names no active guardrail",
	spec.KindMissingOwner:                "Coverage row has no owner",
	spec.KindMissingReference:            "Approved document has placeholder references",
	spec.KindDanglingTaskDependency:      "Task depends on an undeclared task",
	spec.KindDependencyCycle:             "Task dependencies form a cycle",
	spec.KindDuplicateID:                 "Identifier declared more than once",
	spec.KindMalformedTaskID:             "Task id is not dot-separated numbers",
	spec.KindTaskWithoutChecklist:        "Task has no checklist items",
	spec.KindTaskStatusMismatch:          "Task checkbox disagrees with its items",
	spec.KindAcceptanceCriterionMismatch: "Acceptance criterion id does not match its story",
	spec.KindStoryWithoutCriteria:        "User story has no acceptance criteria",
	spec.KindDanglingReference:           "Reference to an undeclared story or task",
	spec.KindRuleSkipped:                 "Check could not run",
}

func kindDescription(k spec.FindingKind) string {
	if d, ok := kindDescriptions[k]; ok {
		return d
	}
	return string(k)
}
