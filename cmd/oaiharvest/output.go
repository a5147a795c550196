package main

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// namespaces are declared on the synthetic root element.
var namespaces = map[string]string{
	"xsi":    "http://www.w3.org/2001/XMLSchema-instance",
	"dc":     "http://purl.org/dc/elements/1.1/",
	"oai_dc": "http://www.openarchives.org/OAI/2.0/oai_dc/",
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// gzipFile closes both the compressor and the file.
type gzipFile struct {
	*gzip.Writer
	file *os.File
}

func (g gzipFile) Close() error {
	if err := g.Writer.Close(); err != nil {
		g.file.Close()
		return err
	}
	return g.file.Close()
}

// openOutput returns stdout for an empty name or "-", otherwise a newly
// created file. A leading ~ is expanded.
func openOutput(name string, stdout io.Writer) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopCloser{stdout}, nil
	}
	filename, err := homedir.Expand(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(filename, ".gz") {
		return gzipFile{Writer: gzip.NewWriter(file), file: file}, nil
	}
	return file, nil
}

// startDocument inserts a root tag, if given.
func startDocument(w io.Writer, root string) error {
	if root == "" {
		return nil
	}
	var prefixes []string
	for k := range namespaces {
		prefixes = append(prefixes, k)
	}
	sort.Strings(prefixes)
	var nslist []string
	for _, k := range prefixes {
		nslist = append(nslist, fmt.Sprintf(`xmlns:%s="%s"`, k, namespaces[k]))
	}
	_, err := fmt.Fprintf(w, "<%s %s>\n", root, strings.Join(nslist, " "))
	return err
}

// endDocument closes the root tag.
func endDocument(w io.Writer, root string) error {
	if root == "" {
		return nil
	}
	_, err := fmt.Fprintf(w, "</%s>\n", root)
	return err
}
