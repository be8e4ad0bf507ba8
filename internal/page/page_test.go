package page

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const fixture = `<html><head>
<script type="application/ld+json">{"@type":"JobPosting"}</script>
<script>window.other = 1;</script>
</head><body>
<h1 class="title">  Senior
   Engineer </h1>
<ul>
  <li class="item">Region <span class="tag">Americas</span><span class="tag">Europe</span></li>
  <li class="item">Skills <span class="tag">Go</span></li>
</ul>
<a id="apply" href="https://acme.example/apply">Apply</a>
<p class="empty">   </p>
</body></html>`

func TestPageLookups(t *testing.T) {
	t.Parallel()

	p, err := New("https://example.com/listings/x", fixture)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/listings/x", p.URL())

	title, ok := p.Text(".title")
	require.True(t, ok)
	require.Equal(t, "Senior Engineer", title)

	_, ok = p.Text(".empty")
	require.False(t, ok)
	_, ok = p.Text(".missing")
	require.False(t, ok)

	require.Equal(t, []string{"Americas", "Europe", "Go"}, p.Texts(".tag"))

	href, ok := p.Attr("#apply", "href")
	require.True(t, ok)
	require.Equal(t, "https://acme.example/apply", href)
	_, ok = p.Attr("#nope", "href")
	require.False(t, ok)
}

func TestPageScripts(t *testing.T) {
	t.Parallel()

	p, err := New("u", fixture)
	require.NoError(t, err)
	require.Len(t, p.Scripts(""), 2)
	require.Equal(t, []string{`{"@type":"JobPosting"}`}, p.Scripts("application/ld+json"))
}

func TestPageXPath(t *testing.T) {
	t.Parallel()

	p, err := New("u", fixture)
	require.NoError(t, err)

	got, ok := p.WithinXPath(`//li[contains(@class,'item') and contains(text(),'Region')]`, ".tag")
	require.True(t, ok)
	require.Equal(t, []string{"Americas", "Europe"}, got)

	_, ok = p.WithinXPath(`//li[contains(text(),'Salary')]`, ".tag")
	require.False(t, ok)

	require.Equal(t, []string{"Go"}, p.XPathTexts(`//li[contains(text(),'Skills')]//span[contains(@class,'tag')]`))
	require.Nil(t, p.XPathTexts(`//li[`))
}
