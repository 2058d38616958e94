package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/dabcheck/dabcheck/internal/types"
)

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	ShortDescription sarifMessage   `json:"shortDescription"`
	FullDescription  sarifMessage   `json:"fullDescription"`
	Properties       sarifRuleProps `json:"properties"`
}

type sarifRuleProps struct {
	Library string   `json:"library,omitempty"`
	Params  []string `json:"params"`
	Version string   `json:"version"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn,omitempty"`
	EndColumn   int           `json:"endColumn,omitempty"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

// SARIFOptions adds tool and repository details to a SARIF run.
type SARIFOptions struct {
	ToolVersion string
	Repo        string
	Commit      string
	Branch      string
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(f types.Finding) string {
	if f.Library == "" {
		return "dabc/" + f.Key
	}
	return "dabc/" + f.Library + "/" + f.Key
}

// WriteSARIF writes findings as SARIF 2.1.0 to the provided writer.
func WriteSARIF(w io.Writer, findings []types.Finding) error {
	return WriteSARIFWithOptions(w, findings, SARIFOptions{})
}

// WriteSARIFWithOptions writes findings as SARIF 2.1.0 with one rule per
// risky call and repository metadata in the run properties.
func WriteSARIFWithOptions(w io.Writer, findings []types.Finding, opts SARIFOptions) error {
	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:           "dabcheck",
			Version:        opts.ToolVersion,
			InformationURI: "https://github.com/dabcheck/dabcheck",
			Rules:          []sarifRule{},
		}},
		Results: []sarifResult{},
	}
	index := map[string]int{}
	for _, f := range findings {
		id := ruleID(f)
		idx, ok := index[id]
		if !ok {
			idx = len(run.Tool.Driver.Rules)
			index[id] = idx
			run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
				ID:               id,
				Name:             f.Key,
				ShortDescription: sarifMessage{Text: "Default argument change in " + f.Key},
				FullDescription:  sarifMessage{Text: "Arguments '" + strings.Join(f.Params, ", ") + "' of '" + f.Key + "' changed their default value in version " + f.Version + "."},
				Properties:       sarifRuleProps{Library: f.Library, Params: f.Params, Version: f.Version},
			})
		}
		region := sarifRegion{StartLine: f.Line}
		if f.Column > 0 {
			region.StartColumn = f.Column
			region.EndColumn = f.Column + (f.End - f.Start)
		}
		region.Snippet = &sarifMessage{Text: f.Match}
		res := sarifResult{
			RuleID:    id,
			RuleIndex: idx,
			Level:     sevToLevel(f.Severity),
			Message:   sarifMessage{Text: f.Message},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.Path},
					Region:           region,
				},
			}},
		}
		if res.Message.Text == "" {
			res.Message.Text = "Call to " + f.Key + " relies on changed defaults: " + strings.Join(f.Missing, ", ")
		}
		if f.Fingerprint != "" {
			res.PartialFingerprints = map[string]string{"dabcheck/v1": f.Fingerprint}
		}
		run.Results = append(run.Results, res)
	}
	props := map[string]any{}
	for k, v := range map[string]string{"repo": opts.Repo, "commit": opts.Commit, "branch": opts.Branch} {
		if v != "" {
			props[k] = v
		}
	}
	if len(props) > 0 {
		run.Properties = props
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
