package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okunev/passvault/internal/crypto"
	"github.com/okunev/passvault/models"
)

func sampleRecords() []models.PasswordRecord {
	notes := "rotate quarterly"
	return []models.PasswordRecord{
		{
			ID:       "orig-1",
			Title:    "GitHub",
			Username: "octocat",
			Password: "hunter2",
			URL:      "https://github.com",
			Notes:    &notes,
			Tags:     []string{"work"},
			Revision: "rev-9",
		},
		{
			ID:       "orig-2",
			Title:    "Bank",
			Username: "octo",
			Password: "correct horse battery staple",
			Favorite: true,
		},
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	data, err := exp.Export(sampleRecords(), "backup-passphrase")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), minFileSize)

	got, err := exp.Import(data, "backup-passphrase")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "GitHub", got[0].Title)
	assert.Equal(t, "hunter2", got[0].Password)
	require.NotNil(t, got[0].Notes)
	assert.Equal(t, "rotate quarterly", *got[0].Notes)

	// Imported records are new local entries.
	assert.NotEqual(t, "orig-1", got[0].ID)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.Empty(t, got[0].Revision)
	assert.Nil(t, got[0].RemoteModifiedAt)
}

func TestImport_WrongPassphrase(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	data, err := exp.Export(sampleRecords(), "right")
	require.NoError(t, err)

	_, err = exp.Import(data, "wrong")
	require.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestImport_TamperedFile(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	data, err := exp.Export(sampleRecords(), "pass")
	require.NoError(t, err)

	data[len(data)/2] ^= 0x01
	_, err = exp.Import(data, "pass")
	require.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestImport_TruncatedFile(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	_, err := exp.Import(make([]byte, minFileSize-1), "pass")
	require.ErrorIs(t, err, ErrMalformedFile)
}

func TestExport_EmptyPassphrase(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	_, err := exp.Export(sampleRecords(), "")
	require.ErrorIs(t, err, ErrEmptyPassphrase)

	_, err = exp.Import([]byte("whatever"), "")
	require.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestExport_RejectsQuarantined(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	recs := sampleRecords()
	recs[1].Quarantined = true

	_, err := exp.Export(recs, "pass")
	require.ErrorIs(t, err, ErrQuarantinedIncluded)
	assert.Contains(t, err.Error(), "orig-2")
}

func TestExport_EmptyRecordList(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	data, err := exp.Export(nil, "pass")
	require.NoError(t, err)

	got, err := exp.Import(data, "pass")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExport_FreshSaltPerBackup(t *testing.T) {
	exp := NewExporter(crypto.NewEngine())

	a, err := exp.Export(sampleRecords(), "pass")
	require.NoError(t, err)
	b, err := exp.Export(sampleRecords(), "pass")
	require.NoError(t, err)

	assert.NotEqual(t, a[:saltSize], b[:saltSize])
}
