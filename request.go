//  Copyright 2015 by Leipzig University Library, http://ub.uni-leipzig.de
//                    The Finc Authors, http://finc.info
//                    Martin Czygan, <martin.czygan@uni-leipzig.de>
//
// This file is part of some open source application.
//
// Some open source application is free software: you can redistribute
// it and/or modify it under the terms of the GNU General Public
// License as published by the Free Software Foundation, either
// version 3 of the License, or (at your option) any later version.
//
// Some open source application is distributed in the hope that it will
// be useful, but WITHOUT ANY WARRANTY; without even the implied warranty
// of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Foobar.  If not, see <http://www.gnu.org/licenses/>.
//
// @license GPL-3.0+ <http://spdx.org/licenses/GPL-3.0+>
//
package oaiharvest

import (
	"fmt"
	"net/url"
	"time"
)

// Verb is an OAI-PMH request type (4. Protocol Requests and Responses).
type Verb string

const (
	Identify            Verb = "Identify"
	GetRecord           Verb = "GetRecord"
	ListMetadataFormats Verb = "ListMetadataFormats"
	ListIdentifiers     Verb = "ListIdentifiers"
	ListRecords         Verb = "ListRecords"
	ListSets            Verb = "ListSets"
)

// DateLayout is the day granularity datestamp format.
const DateLayout = "2006-01-02"

var verbs = map[Verb]bool{
	Identify:            true,
	GetRecord:           true,
	ListMetadataFormats: true,
	ListIdentifiers:     true,
	ListRecords:         true,
	ListSets:            true,
}

// Valid reports whether v is one of the six protocol verbs.
func (v Verb) Valid() bool { return verbs[v] }

// ListOptions narrow a ListIdentifiers or ListRecords harvest. Empty fields
// are left out of the request. MetadataPrefix is required for both verbs.
type ListOptions struct {
	From           string
	Until          string
	Set            string
	MetadataPrefix string
}

// Between returns a copy of o with From and Until set at day granularity.
// Zero times leave the corresponding field untouched.
func (o ListOptions) Between(from, until time.Time) ListOptions {
	if !from.IsZero() {
		o.From = from.Format(DateLayout)
	}
	if !until.IsZero() {
		o.Until = until.Format(DateLayout)
	}
	return o
}

// Split returns one ListOptions value per window, each a copy of o with the
// window boundaries as From and Until.
func (o ListOptions) Split(windows []Window) []ListOptions {
	result := make([]ListOptions, 0, len(windows))
	for _, w := range windows {
		result = append(result, o.Between(w.From, w.Until))
	}
	return result
}

func (o ListOptions) validate(verb Verb) error {
	if !verb.Valid() {
		return &ValidationError{Field: "verb", Reason: fmt.Sprintf("%q is not a protocol verb", verb)}
	}
	switch verb {
	case ListIdentifiers, ListRecords:
		if o.MetadataPrefix == "" {
			return &ValidationError{Field: "metadataPrefix", Reason: "is required for " + string(verb)}
		}
	}
	return nil
}

// query returns the parameters of the first request of a list harvest.
func (o ListOptions) query(verb Verb) url.Values {
	vals := newValues(verb)
	vals.addIfExists("from", o.From)
	vals.addIfExists("until", o.Until)
	vals.addIfExists("set", o.Set)
	vals.addIfExists("metadataPrefix", o.MetadataPrefix)
	return vals.Values
}

// values is a thin wrapper around url.Values.
type values struct {
	url.Values
}

func newValues(verb Verb) values {
	v := values{url.Values{}}
	v.Set("verb", string(verb))
	return v
}

// addIfExists adds a key value pair only if value is nonempty.
func (v values) addIfExists(key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// continuation returns the parameters for a follow-up list request. The
// resumptionToken is an exclusive argument (3.5 Flow Control), so nothing
// besides the verb is sent with it.
func continuation(verb Verb, token string) url.Values {
	vals := newValues(verb)
	vals.Set("resumptionToken", token)
	return vals.Values
}

func identifyQuery() url.Values {
	return newValues(Identify).Values
}

func getRecordQuery(identifier, metadataPrefix string) url.Values {
	vals := newValues(GetRecord)
	vals.Set("identifier", identifier)
	vals.Set("metadataPrefix", metadataPrefix)
	return vals.Values
}

func metadataFormatsQuery(identifier string) url.Values {
	vals := newValues(ListMetadataFormats)
	vals.addIfExists("identifier", identifier)
	return vals.Values
}
