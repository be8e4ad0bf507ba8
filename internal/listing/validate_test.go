package listing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func completeRaw() Raw {
	return Raw{
		JobID:          Str("acme-engineer"),
		Title:          Str("Engineer"),
		Company:        Str("Acme"),
		CompanyAbout:   Str("We build things"),
		ApplyURL:       Str("https://acme.example/apply"),
		ApplyBefore:    Str("Not specified"),
		JobDescription: Str("Write Go"),
		Category:       Str("Programming"),
		Region:         []string{"Anywhere in the World"},
		URL:            "https://weworkremotely.com/remote-jobs/acme-engineer",
		Source:         "WeWorkRemotely",
	}
}

func TestValidateAppliesDefaults(t *testing.T) {
	t.Parallel()

	raw := completeRaw()
	raw.Category = Str("unknown")

	got, err := Validate(raw)
	require.NoError(t, err)
	require.Equal(t, DefaultCategory, got.Category)
	require.Equal(t, "Not Specified", got.SalaryRange)
	require.NotNil(t, got.Countries)
	require.Empty(t, got.Countries)
	require.NotNil(t, got.Skills)
	require.NotNil(t, got.Timezones)
}

func TestValidatePreservesExplicitValues(t *testing.T) {
	t.Parallel()

	raw := completeRaw()
	raw.SalaryRange = Str("$100,000 or more USD")
	raw.Countries = []string{"United States", "Canada"}
	raw.Skills = []string{}

	got, err := Validate(raw)
	require.NoError(t, err)
	require.Equal(t, "$100,000 or more USD", got.SalaryRange)
	require.Equal(t, []string{"United States", "Canada"}, got.Countries)
	require.NotNil(t, got.Skills)
	require.Empty(t, got.Skills)
}

func TestValidateReportsAllMissingFieldsInOrder(t *testing.T) {
	t.Parallel()

	raw := completeRaw()
	raw.ApplyURL = nil
	raw.Region = nil

	_, err := Validate(raw)
	var missing *MissingFieldsError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []string{"apply_url", "region"}, missing.Fields)
	require.Contains(t, err.Error(), "apply_url, region")
}

func TestValidateEmptyRawNamesEveryRequiredField(t *testing.T) {
	t.Parallel()

	_, err := Validate(Raw{})
	var missing *MissingFieldsError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, RequiredFields, missing.Fields)
}

func TestValidateEmptyValuesArePresent(t *testing.T) {
	t.Parallel()

	raw := completeRaw()
	raw.Company = Str("")
	raw.Region = []string{}

	got, err := Validate(raw)
	require.NoError(t, err)
	require.Equal(t, "", got.Company)
	require.Equal(t, []string{}, got.Region)
}

func TestValidateIsIdempotent(t *testing.T) {
	t.Parallel()

	raw := completeRaw()
	raw.Category = Str("  Design ")
	raw.Timezones = []string{"UTC-5"}

	first, err := Validate(raw)
	require.NoError(t, err)
	second, err := Validate(first.Raw())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	for _, c := range AllowedCategories {
		require.Equal(t, c, NormalizeCategory(c))
		require.Equal(t, c, NormalizeCategory("  "+c+"\n"))
	}
	for _, c := range []string{"", "   ", "unknown", "programming", "Engineering"} {
		require.Equal(t, DefaultCategory, NormalizeCategory(c), "category %q", c)
	}
}
