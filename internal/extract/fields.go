package extract

import (
	"fmt"

	"github.com/JakeFAU/remote-jobs-harvester/internal/page"
)

const (
	sidebarItemXPath = `//li[contains(@class,'lis-container__job__sidebar__job-about__list__item') and contains(text(),'%s')]`
	labeledBoxXPath  = `//li[contains(text(),'%s')]//span[contains(@class,'box--blue')]`

	regionBox = ".box--region"
	blueBox   = ".box--blue"
)

// strategy is one way of locating an attribute; nil or empty means not found.
type strategy func(*page.Page) []string

func firstNonEmpty(p *page.Page, strategies ...strategy) []string {
	for _, s := range strategies {
		if values := s(p); len(values) > 0 {
			return values
		}
	}
	return []string{}
}

// sidebarTagged reads the tagged children of the sidebar item naming label.
func sidebarTagged(label, selector string) strategy {
	expr := fmt.Sprintf(sidebarItemXPath, label)
	return func(p *page.Page) []string {
		values, _ := p.WithinXPath(expr, selector)
		return values
	}
}

func anywhere(selector string) strategy {
	return func(p *page.Page) []string {
		return p.Texts(selector)
	}
}

func labeledBoxes(label string) strategy {
	expr := fmt.Sprintf(labeledBoxXPath, label)
	return func(p *page.Page) []string {
		return p.XPathTexts(expr)
	}
}

// Region returns the region labels in document order.
func Region(p *page.Page) []string {
	return firstNonEmpty(p, sidebarTagged("Region", regionBox), anywhere(regionBox))
}

// Salary returns the first salary box text.
func Salary(p *page.Page) (string, bool) {
	values := firstNonEmpty(p, sidebarTagged("Salary", blueBox), labeledBoxes("Salary"))
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Countries returns the country labels in document order.
func Countries(p *page.Page) []string {
	return firstNonEmpty(p, sidebarTagged("Country", blueBox), labeledBoxes("Country"))
}

// Skills returns the skill labels in document order.
func Skills(p *page.Page) []string {
	return firstNonEmpty(p, sidebarTagged("Skills", blueBox), labeledBoxes("Skills"))
}

// Timezones returns the timezone labels in document order.
func Timezones(p *page.Page) []string {
	return firstNonEmpty(p, sidebarTagged("Timezones", blueBox), labeledBoxes("Timezones"))
}

// ApplyURL prefers the call-to-action button, then any element with the
// button's id, then the listing itself.
func ApplyURL(p *page.Page) string {
	for _, selector := range []string{".listing-apply-cta__btn #job-cta-alt", "#job-cta-alt"} {
		if href, ok := p.Attr(selector, "href"); ok && href != "" {
			return href
		}
	}
	return p.URL()
}
