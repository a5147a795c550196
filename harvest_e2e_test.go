package oaiharvest_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/miku/oaiharvest"
	"github.com/miku/oaiharvest/oaixml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<OAI-PMH xmlns="http://www.openarchives.org/OAI/2.0/">
  <responseDate>2002-06-01T19:20:30Z</responseDate>
  <request verb="ListIdentifiers">http://example.com/oai</request>
  <ListIdentifiers>
    %s
    <resumptionToken>%s</resumptionToken>
  </ListIdentifiers>
</OAI-PMH>`

func headerXML(id string) string {
	return fmt.Sprintf("<header><identifier>%s</identifier><datestamp>2001-01-01</datestamp></header>", id)
}

// repository serves three pages of identifiers, chained by tokens. Protocol
// violations by the client are reported to errorf.
func repository(errorf func(string, ...any), requests *atomic.Int32) *httptest.Server {
	pages := map[string]string{
		"":   fmt.Sprintf(pageTemplate, headerXML("oai:x:1")+headerXML("oai:x:2"), "t1"),
		"t1": fmt.Sprintf(pageTemplate, headerXML("oai:x:3"), "t2"),
		"t2": fmt.Sprintf(pageTemplate, headerXML("oai:x:4"), ""),
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		q := r.URL.Query()
		if q.Get("verb") != "ListIdentifiers" {
			http.Error(w, "bad verb", http.StatusBadRequest)
			return
		}
		token := q.Get("resumptionToken")
		if token != "" && len(q) != 2 {
			errorf("continuation request carries extra parameters: %s", r.URL.RawQuery)
		}
		if token == "" && q.Get("metadataPrefix") != "oai_dc" {
			errorf("first request without metadataPrefix: %s", r.URL.RawQuery)
		}
		page, ok := pages[token]
		if !ok {
			fmt.Fprintf(w, `<OAI-PMH><error code="badResumptionToken">%s</error></OAI-PMH>`, token)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		fmt.Fprint(w, page)
	}))
}

func TestHarvestOverHTTP(t *testing.T) {
	var requests atomic.Int32
	ts := repository(t.Errorf, &requests)
	defer ts.Close()

	client, err := oaiharvest.New(oaiharvest.Config{
		Endpoint:  ts.URL,
		Parser:    oaixml.Parser{},
		Transport: &oaiharvest.HTTPTransport{Doer: http.DefaultClient},
	})
	require.NoError(t, err)

	h := client.ListIdentifiers(context.Background(), oaiharvest.ListOptions{MetadataPrefix: "oai_dc"})
	var ids []string
	var sizes []int
	for h.Next() {
		sizes = append(sizes, len(h.Batch()))
		for _, header := range h.Batch() {
			ids = append(ids, header.Identifier)
		}
	}
	require.NoError(t, h.Err())
	assert.Equal(t, []int{2, 1, 1}, sizes)
	assert.Equal(t, []string{"oai:x:1", "oai:x:2", "oai:x:3", "oai:x:4"}, ids)
	assert.EqualValues(t, 3, requests.Load())
	assert.Equal(t, 3, h.Requests())
}

func TestUnexpectedStatusOverHTTP(t *testing.T) {
	var requests atomic.Int32
	ts := repository(t.Errorf, &requests)
	defer ts.Close()

	client, err := oaiharvest.New(oaiharvest.Config{
		Endpoint:  ts.URL,
		Parser:    oaixml.Parser{},
		Transport: &oaiharvest.HTTPTransport{Doer: http.DefaultClient},
	})
	require.NoError(t, err)

	// An unsupported verb is answered with 400.
	_, err = client.ListSets(context.Background()).Collect()
	var se *oaiharvest.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.True(t, strings.Contains(err.Error(), "400"))
}

func ExampleClient_ListIdentifiers() {
	var requests atomic.Int32
	ts := repository(func(string, ...any) {}, &requests)
	defer ts.Close()

	client, err := oaiharvest.New(oaiharvest.Config{Endpoint: ts.URL, Parser: oaixml.Parser{}})
	if err != nil {
		fmt.Println(err)
		return
	}
	h := client.ListIdentifiers(context.Background(), oaiharvest.ListOptions{MetadataPrefix: "oai_dc"})
	for h.Next() {
		for _, header := range h.Batch() {
			fmt.Println(header.Identifier)
		}
	}
	if err := h.Err(); err != nil {
		fmt.Println(err)
	}
	// Output:
	// oai:x:1
	// oai:x:2
	// oai:x:3
	// oai:x:4
}
