// Package listing defines the persisted job listing record, the raw record
// produced by extraction, and the rules that turn one into the other.
package listing

import "time"

// DefaultCategory is the catch-all category every unrecognized value collapses to.
const DefaultCategory = "All Other Remote Jobs"

// Default values for optional attributes.
const (
	DefaultSalaryRange = "Not Specified"
	DefaultApplyBefore = "Not specified"
)

// AllowedCategories is the fixed set of recognized categories.
var AllowedCategories = []string{
	"Programming",
	"Design",
	"DevOps and Sysadmin",
	"Management and Finance",
	"Product",
	"Customer Support",
	"Sales and Marketing",
	DefaultCategory,
}

// RequiredFields lists the keys a raw record must carry, in reporting order.
var RequiredFields = []string{
	"job_id",
	"title",
	"company",
	"company_about",
	"apply_url",
	"apply_before",
	"job_description",
	"category",
	"region",
}

// IsAllowedCategory reports whether category is a member of AllowedCategories.
func IsAllowedCategory(category string) bool {
	for _, c := range AllowedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// JobListing is the validated record written to the store, keyed by JobID.
type JobListing struct {
	JobID          string    `json:"job_id"`
	Title          string    `json:"title"`
	Company        string    `json:"company"`
	CompanyAbout   string    `json:"company_about"`
	ApplyURL       string    `json:"apply_url"`
	ApplyBefore    string    `json:"apply_before"`
	JobDescription string    `json:"job_description"`
	Category       string    `json:"category"`
	Region         []string  `json:"region"`
	SalaryRange    string    `json:"salary_range"`
	Countries      []string  `json:"countries"`
	Skills         []string  `json:"skills"`
	Timezones      []string  `json:"timezones"`
	URL            string    `json:"url"`
	Source         string    `json:"source"`
	Timestamp      time.Time `json:"timestamp"`
}

// Raw is an extracted, not yet validated record. A nil pointer or nil slice
// marks an absent key; a non-nil empty value is present.
type Raw struct {
	JobID          *string
	Title          *string
	Company        *string
	CompanyAbout   *string
	ApplyURL       *string
	ApplyBefore    *string
	JobDescription *string
	Category       *string
	Region         []string
	SalaryRange    *string
	Countries      []string
	Skills         []string
	Timezones      []string
	URL            string
	Source         string
}

// Str returns a pointer to s for populating Raw fields.
func Str(s string) *string {
	return &s
}

// Raw converts a validated listing back into its raw form.
func (l JobListing) Raw() Raw {
	return Raw{
		JobID:          Str(l.JobID),
		Title:          Str(l.Title),
		Company:        Str(l.Company),
		CompanyAbout:   Str(l.CompanyAbout),
		ApplyURL:       Str(l.ApplyURL),
		ApplyBefore:    Str(l.ApplyBefore),
		JobDescription: Str(l.JobDescription),
		Category:       Str(l.Category),
		Region:         cloneNonNil(l.Region),
		SalaryRange:    Str(l.SalaryRange),
		Countries:      cloneNonNil(l.Countries),
		Skills:         cloneNonNil(l.Skills),
		Timezones:      cloneNonNil(l.Timezones),
		URL:            l.URL,
		Source:         l.Source,
	}
}

func cloneNonNil(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
