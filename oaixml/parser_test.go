package oaixml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/miku/oaiharvest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func parse(t *testing.T, name string) oaiharvest.Document {
	t.Helper()
	doc, err := Parser{}.ParseDocument(fixture(t, name))
	require.NoError(t, err)
	return doc
}

func TestIdentify(t *testing.T) {
	p := Parser{}
	id, err := p.Identify(parse(t, "identify.xml"))
	require.NoError(t, err)
	assert.Equal(t, "Example Repository", id.RepositoryName)
	assert.Equal(t, "http://example.com/oai", id.BaseURL)
	assert.Equal(t, "2.0", id.ProtocolVersion)
	assert.Equal(t, []string{"admin@example.com"}, id.AdminEmails)
	assert.Equal(t, "1998-11-12", id.EarliestDatestamp)
	assert.Equal(t, "persistent", id.DeletedRecord)
	assert.Equal(t, "YYYY-MM-DD", id.Granularity)
	assert.Equal(t, []string{"gzip"}, id.Compressions)
	require.Len(t, id.Descriptions, 1)
	assert.Contains(t, string(id.Descriptions[0]), "oai-identifier")

	token, err := p.ResumptionToken(parse(t, "identify.xml"), oaiharvest.Identify)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestListIdentifiers(t *testing.T) {
	p := Parser{}
	doc := parse(t, "list_identifiers.xml")

	headers, err := p.Headers(doc)
	require.NoError(t, err)
	assert.Equal(t, []oaiharvest.Header{
		{Identifier: "oai:example.com:1", Datestamp: "2001-01-01", SetSpecs: []string{"math", "physics"}},
		{Identifier: "oai:example.com:2", Datestamp: "2001-01-02", Deleted: true},
	}, headers)

	token, err := p.ResumptionToken(doc, oaiharvest.ListIdentifiers)
	require.NoError(t, err)
	assert.Equal(t, "xyz|2", token)

	_, err = p.ResumptionToken(doc, oaiharvest.ListRecords)
	assert.ErrorIs(t, err, oaiharvest.ErrMalformedResponse)
	_, err = p.Records(doc)
	assert.ErrorIs(t, err, oaiharvest.ErrMalformedResponse)
}

func TestListRecords(t *testing.T) {
	p := Parser{}
	doc := parse(t, "list_records.xml")

	records, err := p.Records(doc)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "oai:example.com:1", records[0].Header.Identifier)
	assert.False(t, records[0].Header.Deleted)
	assert.Contains(t, string(records[0].Metadata), "<dc:title>On Harvesting</dc:title>")
	require.Len(t, records[0].About, 1)
	assert.Contains(t, string(records[0].About[0]), "provenance")

	assert.True(t, records[1].Header.Deleted)
	assert.Nil(t, records[1].Metadata)

	token, err := p.ResumptionToken(doc, oaiharvest.ListRecords)
	require.NoError(t, err)
	assert.Empty(t, token, "an empty resumptionToken element ends the list")
}

func TestListSets(t *testing.T) {
	p := Parser{}
	doc := parse(t, "list_sets.xml")

	sets, err := p.Sets(doc)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "math", sets[0].Spec)
	assert.Equal(t, "Mathematics", sets[0].Name)
	assert.Contains(t, string(sets[0].Description), "oai_dc:dc")
	assert.Equal(t, "physics", sets[1].Spec)
	assert.Nil(t, sets[1].Description)

	token, err := p.ResumptionToken(doc, oaiharvest.ListSets)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestListMetadataFormats(t *testing.T) {
	formats, err := Parser{}.MetadataFormats(parse(t, "list_metadata_formats.xml"))
	require.NoError(t, err)
	assert.Equal(t, []oaiharvest.MetadataFormat{
		{
			Prefix:    "oai_dc",
			Schema:    "http://www.openarchives.org/OAI/2.0/oai_dc.xsd",
			Namespace: "http://www.openarchives.org/OAI/2.0/oai_dc/",
		},
		{
			Prefix:    "marcxml",
			Schema:    "http://www.loc.gov/standards/marcxml/schema/MARC21slim.xsd",
			Namespace: "http://www.loc.gov/MARC21/slim",
		},
	}, formats)
}

func TestGetRecord(t *testing.T) {
	rec, err := Parser{}.Record(parse(t, "get_record.xml"))
	require.NoError(t, err)
	assert.Equal(t, "oai:example.com:1", rec.Header.Identifier)
	assert.Equal(t, []string{"math"}, rec.Header.SetSpecs)
	assert.Contains(t, string(rec.Metadata), "dc:creator")
}

func TestProtocolError(t *testing.T) {
	_, err := Parser{}.ParseDocument(fixture(t, "error.xml"))
	var oe *oaiharvest.OAIError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "noRecordsMatch", oe.Code)
	assert.Equal(t, "No records match the request.", oe.Message)
	assert.True(t, oaiharvest.IsNoRecordsMatch(err))
	assert.NotErrorIs(t, err, oaiharvest.ErrMalformedResponse)
}

func TestMalformed(t *testing.T) {
	var tests = []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"html", "<html><body>Service Unavailable</body></html>"},
		{"truncated", `<?xml version="1.0"?><OAI-PMH><ListRecords><record>`},
		{"text", "not xml at all"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parser{}.ParseDocument([]byte(test.body))
			assert.ErrorIs(t, err, oaiharvest.ErrMalformedResponse)
		})
	}
}

func TestForeignDocument(t *testing.T) {
	_, err := Parser{}.Headers("not a response")
	assert.ErrorIs(t, err, oaiharvest.ErrMalformedResponse)
}
