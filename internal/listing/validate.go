package listing

import (
	"fmt"
	"strings"
)

// MissingFieldsError names every required field absent from a raw record.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Validate enforces the required-field contract and normalizes category and
// optional attributes. The returned listing carries no timestamp; that is
// assigned at write time.
func Validate(raw Raw) (JobListing, error) {
	if missing := missingFields(raw); len(missing) > 0 {
		return JobListing{}, &MissingFieldsError{Fields: missing}
	}

	out := JobListing{
		JobID:          *raw.JobID,
		Title:          *raw.Title,
		Company:        *raw.Company,
		CompanyAbout:   *raw.CompanyAbout,
		ApplyURL:       *raw.ApplyURL,
		ApplyBefore:    *raw.ApplyBefore,
		JobDescription: *raw.JobDescription,
		Category:       NormalizeCategory(*raw.Category),
		Region:         raw.Region,
		SalaryRange:    DefaultSalaryRange,
		Countries:      defaultList(raw.Countries),
		Skills:         defaultList(raw.Skills),
		Timezones:      defaultList(raw.Timezones),
		URL:            raw.URL,
		Source:         raw.Source,
	}
	if raw.SalaryRange != nil {
		out.SalaryRange = *raw.SalaryRange
	}
	return out, nil
}

// NormalizeCategory trims category and coerces anything outside the allowed
// set, blank included, to DefaultCategory.
func NormalizeCategory(category string) string {
	trimmed := strings.TrimSpace(category)
	if IsAllowedCategory(trimmed) {
		return trimmed
	}
	return DefaultCategory
}

func missingFields(raw Raw) []string {
	present := map[string]bool{
		"job_id":          raw.JobID != nil,
		"title":           raw.Title != nil,
		"company":         raw.Company != nil,
		"company_about":   raw.CompanyAbout != nil,
		"apply_url":       raw.ApplyURL != nil,
		"apply_before":    raw.ApplyBefore != nil,
		"job_description": raw.JobDescription != nil,
		"category":        raw.Category != nil,
		"region":          raw.Region != nil,
	}
	var missing []string
	for _, field := range RequiredFields {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	return missing
}

func defaultList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
