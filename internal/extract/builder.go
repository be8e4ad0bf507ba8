package extract

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/page"
)

// DOM anchors read directly by the builder.
const (
	titleSelector        = ".lis-container__header__hero__company-info__title"
	companySelector      = ".lis-container__job__sidebar__companyDetails__info__title h3"
	companyAboutSelector = ".lis-container__header__hero__company-info__description"
	descriptionSelector  = ".lis-container__job__content__description"
	categoryTabSelector  = ".lis-container__header__navigation__tab--category"
	applyBeforeSelector  = ".lis-container__job__sidebar__job-about__list__item span"
)

// Loader produces a page snapshot for a listing URL.
type Loader interface {
	Load(ctx context.Context, url string) (*page.Page, error)
}

// Builder assembles raw records from loaded pages.
type Builder struct {
	loader Loader
	source string
	logger *zap.Logger
}

// NewBuilder constructs a Builder tagging records with source.
func NewBuilder(loader Loader, source string, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{loader: loader, source: source, logger: logger}
}

// Build loads url and extracts a raw record from it. Any load failure
// discards the record.
func (b *Builder) Build(ctx context.Context, url string) (listing.Raw, error) {
	p, err := b.loader.Load(ctx, url)
	if err != nil {
		return listing.Raw{}, fmt.Errorf("load %s: %w", url, err)
	}
	if payload, ok := DetectStructured(p); ok {
		b.logger.Debug("structured payload found", zap.String("url", url))
		return FromStructured(p, payload, b.source), nil
	}
	return FromDOM(p, b.source), nil
}

// FromStructured builds a record whose title, company, deadline, description
// and category come from payload. The remaining attributes are always read
// from the page.
func FromStructured(p *page.Page, payload map[string]any, source string) listing.Raw {
	raw := fromPage(p, source)
	raw.Title = listing.Str(stringField(payload, "title", ""))
	raw.Company = listing.Str(organizationName(payload))
	raw.ApplyBefore = listing.Str(stringField(payload, "validThrough", listing.DefaultApplyBefore))
	raw.JobDescription = listing.Str(stringField(payload, "description", ""))
	raw.Category = listing.Str(stringField(payload, "occupationalCategory", listing.DefaultCategory))
	return raw
}

// FromDOM builds a record entirely from page heuristics.
func FromDOM(p *page.Page, source string) listing.Raw {
	raw := fromPage(p, source)
	raw.Title = listing.Str(textOrEmpty(p, titleSelector))
	raw.Company = listing.Str(textOrEmpty(p, companySelector))
	raw.JobDescription = listing.Str(textOrEmpty(p, descriptionSelector))

	category, ok := p.Text(categoryTabSelector)
	if !ok {
		category = listing.CategoryFromURL(p.URL())
	}
	raw.Category = listing.Str(category)

	deadline, ok := p.Text(applyBeforeSelector)
	if !ok {
		deadline = listing.DefaultApplyBefore
	}
	raw.ApplyBefore = listing.Str(deadline)
	return raw
}

// fromPage fills the attributes both construction paths read from the DOM.
func fromPage(p *page.Page, source string) listing.Raw {
	raw := listing.Raw{
		JobID:        listing.Str(listing.IDFromURL(p.URL())),
		CompanyAbout: listing.Str(textOrEmpty(p, companyAboutSelector)),
		ApplyURL:     listing.Str(ApplyURL(p)),
		Region:       Region(p),
		Countries:    Countries(p),
		Skills:       Skills(p),
		Timezones:    Timezones(p),
		URL:          p.URL(),
		Source:       source,
	}
	if salary, ok := Salary(p); ok {
		raw.SalaryRange = listing.Str(salary)
	}
	return raw
}

func textOrEmpty(p *page.Page, selector string) string {
	text, _ := p.Text(selector)
	return text
}
