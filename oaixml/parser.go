// Package oaixml decodes OAI-PMH 2.0 XML responses. Parser satisfies
// oaiharvest.Parser.
package oaixml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/miku/oaiharvest"
)

// Parser decodes responses with encoding/xml. The zero value is ready to use.
type Parser struct{}

var _ oaiharvest.Parser = Parser{}

// resumptionToken is part of OAI flow control (3.5)
type resumptionToken struct {
	Value string `xml:",chardata"`
	// A UTCdatetime indicating when the resumptionToken ceases to be valid.
	ExpirationDate string `xml:"expirationDate,attr"`
	// A count of the number of elements of the complete list thus far
	// returned (i.e. cursor starts at 0).
	Cursor string `xml:"cursor,attr"`
	// An integer indicating the cardinality of the complete list. The value
	// of completeListSize may be only an estimate.
	CompleteListSize string `xml:"completeListSize,attr"`
}

type header struct {
	Status     string   `xml:"status,attr"`
	Identifier string   `xml:"identifier"`
	Datestamp  string   `xml:"datestamp"`
	SetSpecs   []string `xml:"setSpec"`
}

type verbatim struct {
	Inner []byte `xml:",innerxml"`
}

type record struct {
	Header   header     `xml:"header"`
	Metadata *verbatim  `xml:"metadata"`
	About    []verbatim `xml:"about"`
}

// Identify response.
type Identify struct {
	Name              string     `xml:"repositoryName"`
	URL               string     `xml:"baseURL"`
	Version           string     `xml:"protocolVersion"`
	AdminEmails       []string   `xml:"adminEmail"`
	EarliestDatestamp string     `xml:"earliestDatestamp"`
	DeletePolicy      string     `xml:"deletedRecord"`
	Granularity       string     `xml:"granularity"`
	Compressions      []string   `xml:"compression"`
	Descriptions      []verbatim `xml:"description"`
}

// ListMetadataFormats response.
type ListMetadataFormats struct {
	Formats []struct {
		Prefix    string `xml:"metadataPrefix"`
		Schema    string `xml:"schema"`
		Namespace string `xml:"metadataNamespace"`
	} `xml:"metadataFormat"`
}

// ListSets response.
type ListSets struct {
	Sets []struct {
		Spec        string    `xml:"setSpec"`
		Name        string    `xml:"setName"`
		Description *verbatim `xml:"setDescription"`
	} `xml:"set"`
	Token resumptionToken `xml:"resumptionToken"`
}

// ListIdentifiers response.
type ListIdentifiers struct {
	Headers []header        `xml:"header"`
	Token   resumptionToken `xml:"resumptionToken"`
}

// ListRecords response.
type ListRecords struct {
	Records []record        `xml:"record"`
	Token   resumptionToken `xml:"resumptionToken"`
}

// GetRecord response.
type GetRecord struct {
	Record record `xml:"record"`
}

// Response is the document produced by Parser. Only the element matching
// the request verb is non-nil.
type Response struct {
	XMLName xml.Name `xml:"OAI-PMH"`
	Date    string   `xml:"responseDate"`
	Request struct {
		Verb     string `xml:"verb,attr"`
		Endpoint string `xml:",chardata"`
	} `xml:"request"`
	Errors []struct {
		Code    string `xml:"code,attr"`
		Message string `xml:",chardata"`
	} `xml:"error"`
	Identify            *Identify            `xml:"Identify"`
	ListMetadataFormats *ListMetadataFormats `xml:"ListMetadataFormats"`
	ListSets            *ListSets            `xml:"ListSets"`
	ListIdentifiers     *ListIdentifiers     `xml:"ListIdentifiers"`
	ListRecords         *ListRecords         `xml:"ListRecords"`
	GetRecord           *GetRecord           `xml:"GetRecord"`
}

// ParseDocument decodes body into a *Response. The first error element of
// the response is returned as *oaiharvest.OAIError.
func (Parser) ParseDocument(body []byte) (oaiharvest.Document, error) {
	var resp Response
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", oaiharvest.ErrMalformedResponse, err)
	}
	if len(resp.Errors) > 0 {
		e := resp.Errors[0]
		return nil, &oaiharvest.OAIError{Code: e.Code, Message: strings.TrimSpace(e.Message)}
	}
	return &resp, nil
}

func response(doc oaiharvest.Document) (*Response, error) {
	resp, ok := doc.(*Response)
	if !ok || resp == nil {
		return nil, fmt.Errorf("%w: unexpected document type %T", oaiharvest.ErrMalformedResponse, doc)
	}
	return resp, nil
}

func missing(element string) error {
	return fmt.Errorf("%w: missing %s element", oaiharvest.ErrMalformedResponse, element)
}

// ResumptionToken reads the token from the element named after verb. A
// missing list element is an error; a missing token is not.
func (Parser) ResumptionToken(doc oaiharvest.Document, verb oaiharvest.Verb) (string, error) {
	resp, err := response(doc)
	if err != nil {
		return "", err
	}
	var token resumptionToken
	switch verb {
	case oaiharvest.ListIdentifiers:
		if resp.ListIdentifiers == nil {
			return "", missing(string(verb))
		}
		token = resp.ListIdentifiers.Token
	case oaiharvest.ListRecords:
		if resp.ListRecords == nil {
			return "", missing(string(verb))
		}
		token = resp.ListRecords.Token
	case oaiharvest.ListSets:
		if resp.ListSets == nil {
			return "", missing(string(verb))
		}
		token = resp.ListSets.Token
	default:
		return "", nil
	}
	return strings.TrimSpace(token.Value), nil
}

// Identify returns the repository description of an Identify response.
func (Parser) Identify(doc oaiharvest.Document) (*oaiharvest.Identification, error) {
	resp, err := response(doc)
	if err != nil {
		return nil, err
	}
	id := resp.Identify
	if id == nil {
		return nil, missing("Identify")
	}
	result := &oaiharvest.Identification{
		RepositoryName:    strings.TrimSpace(id.Name),
		BaseURL:           strings.TrimSpace(id.URL),
		ProtocolVersion:   strings.TrimSpace(id.Version),
		AdminEmails:       id.AdminEmails,
		EarliestDatestamp: strings.TrimSpace(id.EarliestDatestamp),
		DeletedRecord:     strings.TrimSpace(id.DeletePolicy),
		Granularity:       strings.TrimSpace(id.Granularity),
		Compressions:      id.Compressions,
	}
	for _, d := range id.Descriptions {
		result.Descriptions = append(result.Descriptions, bytes.TrimSpace(d.Inner))
	}
	return result, nil
}

// MetadataFormats returns the formats listed in a ListMetadataFormats response.
func (Parser) MetadataFormats(doc oaiharvest.Document) ([]oaiharvest.MetadataFormat, error) {
	resp, err := response(doc)
	if err != nil {
		return nil, err
	}
	if resp.ListMetadataFormats == nil {
		return nil, missing("ListMetadataFormats")
	}
	var formats []oaiharvest.MetadataFormat
	for _, f := range resp.ListMetadataFormats.Formats {
		formats = append(formats, oaiharvest.MetadataFormat{
			Prefix:    strings.TrimSpace(f.Prefix),
			Schema:    strings.TrimSpace(f.Schema),
			Namespace: strings.TrimSpace(f.Namespace),
		})
	}
	return formats, nil
}

// Record returns the record of a GetRecord response.
func (Parser) Record(doc oaiharvest.Document) (*oaiharvest.Record, error) {
	resp, err := response(doc)
	if err != nil {
		return nil, err
	}
	if resp.GetRecord == nil {
		return nil, missing("GetRecord")
	}
	rec := convertRecord(resp.GetRecord.Record)
	return &rec, nil
}

// Headers returns the headers of one ListIdentifiers page.
func (Parser) Headers(doc oaiharvest.Document) ([]oaiharvest.Header, error) {
	resp, err := response(doc)
	if err != nil {
		return nil, err
	}
	if resp.ListIdentifiers == nil {
		return nil, missing("ListIdentifiers")
	}
	headers := make([]oaiharvest.Header, 0, len(resp.ListIdentifiers.Headers))
	for _, h := range resp.ListIdentifiers.Headers {
		headers = append(headers, convertHeader(h))
	}
	return headers, nil
}

// Records returns the records of one ListRecords page, metadata verbatim.
func (Parser) Records(doc oaiharvest.Document) ([]oaiharvest.Record, error) {
	resp, err := response(doc)
	if err != nil {
		return nil, err
	}
	if resp.ListRecords == nil {
		return nil, missing("ListRecords")
	}
	records := make([]oaiharvest.Record, 0, len(resp.ListRecords.Records))
	for _, r := range resp.ListRecords.Records {
		records = append(records, convertRecord(r))
	}
	return records, nil
}

// Sets returns the sets of one ListSets page.
func (Parser) Sets(doc oaiharvest.Document) ([]oaiharvest.Set, error) {
	resp, err := response(doc)
	if err != nil {
		return nil, err
	}
	if resp.ListSets == nil {
		return nil, missing("ListSets")
	}
	sets := make([]oaiharvest.Set, 0, len(resp.ListSets.Sets))
	for _, s := range resp.ListSets.Sets {
		set := oaiharvest.Set{
			Spec: strings.TrimSpace(s.Spec),
			Name: strings.TrimSpace(s.Name),
		}
		if s.Description != nil {
			set.Description = bytes.TrimSpace(s.Description.Inner)
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func convertHeader(h header) oaiharvest.Header {
	return oaiharvest.Header{
		Identifier: strings.TrimSpace(h.Identifier),
		Datestamp:  strings.TrimSpace(h.Datestamp),
		SetSpecs:   h.SetSpecs,
		Deleted:    h.Status == "deleted",
	}
}

func convertRecord(r record) oaiharvest.Record {
	rec := oaiharvest.Record{Header: convertHeader(r.Header)}
	if r.Metadata != nil {
		rec.Metadata = bytes.TrimSpace(r.Metadata.Inner)
	}
	for _, a := range r.About {
		rec.About = append(rec.About, bytes.TrimSpace(a.Inner))
	}
	return rec
}
