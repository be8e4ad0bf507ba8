package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/remote-jobs-harvester/internal/listing"
	"github.com/JakeFAU/remote-jobs-harvester/internal/storage"
)

var _ storage.JobStore = (*JobStore)(nil)

func sampleJob() listing.JobListing {
	return listing.JobListing{
		JobID:          "job-42",
		Title:          "Engineer",
		Company:        "Acme",
		CompanyAbout:   "Anvils",
		ApplyURL:       "https://acme.example/apply",
		ApplyBefore:    "Not specified",
		JobDescription: "Write Go",
		Category:       "Programming",
		Region:         []string{"Americas"},
		SalaryRange:    "Not Specified",
		Countries:      []string{},
		Skills:         []string{"Go"},
		Timezones:      nil,
		URL:            "https://weworkremotely.com/listings/job-42",
		Source:         "WeWorkRemotely",
		Timestamp:      time.Unix(1700000000, 0).UTC(),
	}
}

func newMockStore(t *testing.T) (*JobStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	store, err := NewWithPool(mock, "jobs")
	require.NoError(t, err)
	return store, mock
}

func TestNewWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewWithPool(mock, "jobs; DROP TABLE x")
	require.Error(t, err)
	_, err = NewWithPool(nil, "jobs")
	require.Error(t, err)
	store, err := NewWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "jobs", store.table)
}

func TestNewRequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestCreateInsertsRow(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()
	job := sampleJob()

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs(
			job.JobID, job.Title, job.Company, job.CompanyAbout, job.ApplyURL, job.ApplyBefore,
			job.JobDescription, job.Category, []byte(`["Americas"]`), job.SalaryRange,
			[]byte(`[]`), []byte(`["Go"]`), []byte(`[]`), job.URL, job.Source, job.Timestamp,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := store.Create(context.Background(), job)
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConflictReportsDuplicate(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec("ON CONFLICT \\(job_id\\) DO NOTHING").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := store.Create(context.Background(), sampleJob())
	require.NoError(t, err)
	require.False(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequiresID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()
	_, err := store.Create(context.Background(), listing.JobListing{})
	require.Error(t, err)
}

func TestExists(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("job-42").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("job-43").
		WillReturnError(errors.New("connection reset"))

	ok, err := store.Exists(context.Background(), "job-42")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = store.Exists(context.Background(), "job-43")
	require.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListDecodesRows(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()
	job := sampleJob()

	rows := pgxmock.NewRows([]string{
		"job_id", "title", "company", "company_about", "apply_url", "apply_before", "job_description",
		"category", "region", "salary_range", "countries", "skills", "timezones", "url", "source", "ingested_at",
	}).AddRow(
		job.JobID, job.Title, job.Company, job.CompanyAbout, job.ApplyURL, job.ApplyBefore, job.JobDescription,
		job.Category, []byte(`["Americas"]`), job.SalaryRange, []byte(`[]`), []byte(`["Go"]`), []byte(`[]`),
		job.URL, job.Source, job.Timestamp,
	)
	mock.ExpectQuery("SELECT job_id, title").WillReturnRows(rows)

	got, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	job.Timezones = []string{}
	require.Equal(t, job, got[0])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM jobs").WithArgs("job-42").WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM jobs").WithArgs("job-42").WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.Delete(context.Background(), "job-42"))
	require.ErrorIs(t, store.Delete(context.Background(), "job-42"), storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSchema(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS jobs").WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
