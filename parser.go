package oaiharvest

// Document is the parsed form of one response body. Its shape is private to
// the Parser that produced it; the client only hands it back.
type Document any

// Parser turns raw response bodies into documents and extracts results from
// them. Implementations must be safe for concurrent use.
type Parser interface {
	// ParseDocument parses a response body. Unparsable input should be
	// reported as ErrMalformedResponse; an OAI error element as *OAIError.
	ParseDocument(body []byte) (Document, error)
	// ResumptionToken returns the flow control token of a list response for
	// the given verb, or the empty string on the last page.
	ResumptionToken(doc Document, verb Verb) (string, error)
	Identify(doc Document) (*Identification, error)
	MetadataFormats(doc Document) ([]MetadataFormat, error)
	Record(doc Document) (*Record, error)
	// Headers, Records and Sets return the items of one ListIdentifiers,
	// ListRecords and ListSets page, respectively.
	Headers(doc Document) ([]Header, error)
	Records(doc Document) ([]Record, error)
	Sets(doc Document) ([]Set, error)
}

// Header is the main response of ListIdentifiers requests and also
// transmitted in ListRecords and GetRecord.
type Header struct {
	Identifier string   `json:"identifier"`
	Datestamp  string   `json:"datestamp"`
	SetSpecs   []string `json:"sets,omitempty"`
	Deleted    bool     `json:"deleted,omitempty"`
}

// Record is a header plus metadata. Metadata and About hold the verbatim XML
// of the respective elements; deleted records carry no metadata.
type Record struct {
	Header   Header   `json:"header"`
	Metadata []byte   `json:"-"`
	About    [][]byte `json:"-"`
}

// Set describes one set of the repository.
type Set struct {
	Spec        string `json:"spec"`
	Name        string `json:"name,omitempty"`
	Description []byte `json:"-"`
}

// Identification is the Identify response.
type Identification struct {
	RepositoryName    string   `json:"name"`
	BaseURL           string   `json:"url"`
	ProtocolVersion   string   `json:"version"`
	AdminEmails       []string `json:"email,omitempty"`
	EarliestDatestamp string   `json:"earliest"`
	DeletedRecord     string   `json:"delete"`
	Granularity       string   `json:"granularity"`
	Compressions      []string `json:"compression,omitempty"`
	Descriptions      [][]byte `json:"-"`
}

// MetadataFormat is one entry of a ListMetadataFormats response.
type MetadataFormat struct {
	Prefix    string `json:"prefix"`
	Schema    string `json:"schema"`
	Namespace string `json:"namespace,omitempty"`
}

// listKind binds a paginated verb to the one item type its pages carry.
type listKind[T any] struct {
	verb    Verb
	project func(Parser, Document) ([]T, error)
}

var (
	identifiersKind = listKind[Header]{verb: ListIdentifiers, project: Parser.Headers}
	recordsKind     = listKind[Record]{verb: ListRecords, project: Parser.Records}
	setsKind        = listKind[Set]{verb: ListSets, project: Parser.Sets}
)
