package listing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDFromURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://weworkremotely.com/remote-jobs/acme-staff-engineer":        "acme-staff-engineer",
		"https://weworkremotely.com/remote-jobs/acme-staff-engineer?ref=rss": "acme-staff-engineer",
		"https://weworkremotely.com/listings/job-42":                        "job-42",
		"https://weworkremotely.com/":                                        "",
	}
	for in, want := range cases {
		require.Equal(t, want, IDFromURL(in), in)
	}
}

func TestCategoryFromURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want string
	}{
		{"https://weworkremotely.com/categories/remote-devops-and-sysadmin-jobs/x", "Devops and Sysadmin Jobs"},
		{"https://weworkremotely.com/categories/remote-design-jobs", "Design Jobs"},
		{"https://weworkremotely.com/categories/remote", DefaultCategory},
		{"https://weworkremotely.com/remote-jobs/acme-engineer", DefaultCategory},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CategoryFromURL(tc.url), tc.url)
	}
}
