package listing

import (
	"net/url"
	"strings"
)

// IDFromURL derives the listing identifier from the last path segment of rawURL.
func IDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	return segments[len(segments)-1]
}

// CategoryFromURL derives a category from the path segment that follows a
// "categories" component, e.g. "/categories/remote-devops-and-sysadmin-jobs"
// yields "Devops and Sysadmin Jobs". It returns DefaultCategory when the path
// carries no such segment.
func CategoryFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return DefaultCategory
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] != "categories" {
			continue
		}
		words := strings.Split(segments[i+1], "-")
		if len(words) < 2 {
			return DefaultCategory
		}
		words = words[1:]
		for j, w := range words {
			if strings.EqualFold(w, "and") {
				words[j] = "and"
				continue
			}
			words[j] = titleWord(w)
		}
		return strings.Join(words, " ")
	}
	return DefaultCategory
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	lower := strings.ToLower(w)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
