// Package extract turns a loaded listing page into a raw job record.
package extract

import (
	"encoding/json"
	"regexp"

	"github.com/JakeFAU/remote-jobs-harvester/internal/page"
)

const (
	linkedDataType = "application/ld+json"
	jobPostingType = "JobPosting"
)

var jobDataAssignment = regexp.MustCompile(`(?s)window\.jobData\s*=\s*({.*?});`)

// DetectStructured looks for an embedded job payload. Linked-data scripts
// declaring a JobPosting win over an inline window.jobData assignment.
// Malformed and empty payloads are skipped.
func DetectStructured(p *page.Page) (map[string]any, bool) {
	for _, body := range p.Scripts(linkedDataType) {
		var payload map[string]any
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			continue
		}
		if t, _ := payload["@type"].(string); t == jobPostingType {
			return payload, true
		}
	}
	for _, body := range p.Scripts("") {
		match := jobDataAssignment.FindStringSubmatch(body)
		if match == nil {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(match[1]), &payload); err != nil || len(payload) == 0 {
			continue
		}
		return payload, true
	}
	return nil, false
}

func stringField(payload map[string]any, key, def string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return def
}

func organizationName(payload map[string]any) string {
	org, ok := payload["hiringOrganization"].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(org, "name", "")
}
