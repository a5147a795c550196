//
// Package oaiharvest implements a client for the Open Archives Initiative
// Protocol for Metadata Harvesting (OAI-PMH), a low-barrier mechanism for
// repository interoperability.
//
// A Client sends the six protocol verbs to a single endpoint. Identify,
// GetRecord and ListMetadataFormats take one round trip each. ListIdentifiers,
// ListRecords and ListSets return a Harvest, which fetches one page per call
// to Next and follows resumption tokens until the server stops sending them.
//
// Responses are decoded by a pluggable Parser; package oaixml contains one
// for the OAI-PMH 2.0 XML schema.
//
// Basic usage:
//
//	client, err := oaiharvest.New(oaiharvest.Config{
//		Endpoint: "http://export.arxiv.org/oai2",
//		Parser:   oaixml.Parser{},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	h := client.ListRecords(ctx, oaiharvest.ListOptions{MetadataPrefix: "oai_dc"})
//	for h.Next() {
//		for _, rec := range h.Batch() {
//			fmt.Println(rec.Header.Identifier)
//		}
//	}
//	if err := h.Err(); err != nil {
//		log.Fatal(err)
//	}
//
package oaiharvest
