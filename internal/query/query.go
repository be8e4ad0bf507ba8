// Package query filters and paginates stored listings in memory for the read
// API. Every operation works on the full collection returned by the store.
package query

import (
	"strings"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
)

// Page size bounds accepted by Paginate callers.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is one slice of a listing collection.
type Page struct {
	Items []listing.JobListing `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Size  int                  `json:"size"`
	Pages int                  `json:"pages"`
}

// Paginate returns the 1-based page of items. A page past the end yields an
// empty Items slice with the totals intact.
func Paginate(items []listing.JobListing, page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(items)
	out := Page{
		Items: []listing.JobListing{},
		Total: total,
		Page:  page,
		Size:  size,
		Pages: (total + size - 1) / size,
	}
	start := (page - 1) * size
	if start >= total {
		return out
	}
	end := min(start+size, total)
	out.Items = items[start:end]
	return out
}

// FilterByParam matches param as an exact category when it names an allowed
// category and as a case-insensitive company substring otherwise.
func FilterByParam(items []listing.JobListing, param string) []listing.JobListing {
	if listing.IsAllowedCategory(param) {
		return filter(items, func(j listing.JobListing) bool { return j.Category == param })
	}
	needle := strings.ToLower(param)
	return filter(items, func(j listing.JobListing) bool {
		return strings.Contains(strings.ToLower(j.Company), needle)
	})
}

// SearchParams are optional free-text filters; empty fields are ignored.
type SearchParams struct {
	Title       string
	Description string
	Skills      string
}

// Search keeps listings matching every non-empty parameter.
func Search(items []listing.JobListing, p SearchParams) []listing.JobListing {
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)
	skill := strings.ToLower(p.Skills)
	return filter(items, func(j listing.JobListing) bool {
		if title != "" && !strings.Contains(strings.ToLower(j.Title), title) {
			return false
		}
		if desc != "" && !strings.Contains(strings.ToLower(j.JobDescription), desc) {
			return false
		}
		if skill != "" && !anyContains(j.Skills, skill) {
			return false
		}
		return true
	})
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func filter(items []listing.JobListing, keep func(listing.JobListing) bool) []listing.JobListing {
	out := make([]listing.JobListing, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
