package redcap

import (
	"fmt"
	"net/url"
)

// Wire keys common to every request.
const (
	keyToken        = "token"
	keyContent      = "content"
	keyFormat       = "format"
	keyReturnFormat = "returnFormat"
)

// timestampLayout is the wire layout for date range bounds.
const timestampLayout = "2006-01-02 15:04:05"

// Format selects the response body encoding. FormatTable is client-side
// only: the request is sent as CSV and the response reshaped into a table.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatXML   Format = "xml"
	FormatTable Format = "df"
)

// wire returns the format actually sent to the server.
func (f Format) wire() Format {
	if f == FormatTable {
		return FormatCSV
	}
	return f
}

func (f Format) valid() bool {
	switch f {
	case FormatJSON, FormatCSV, FormatXML, FormatTable:
		return true
	}
	return false
}

type payloadEntry struct {
	key    string
	value  string
	values []string // non-nil for list fields
}

// Payload accumulates the fields of one API request. Fields keep insertion
// order; list-valued fields keep their element order and are expanded to
// indexed wire keys (records[0], records[1], ...) only when the payload is
// encoded for transport.
type Payload struct {
	entries []payloadEntry
}

// newPayload seeds the token and the content discriminator every request
// must carry.
func newPayload(token, content string) *Payload {
	p := &Payload{}
	p.Set(keyToken, token)
	p.Set(keyContent, content)
	return p
}

// Set adds or replaces a scalar field.
func (p *Payload) Set(key, value string) {
	for i := range p.entries {
		if p.entries[i].key == key {
			p.entries[i] = payloadEntry{key: key, value: value}
			return
		}
	}
	p.entries = append(p.entries, payloadEntry{key: key, value: value})
}

// SetList adds or replaces a list field. An empty list is dropped entirely:
// omission, not an empty value, tells the server to apply its default.
func (p *Payload) SetList(key string, values []string) {
	if len(values) == 0 {
		return
	}
	for i := range p.entries {
		if p.entries[i].key == key {
			p.entries[i] = payloadEntry{key: key, values: values}
			return
		}
	}
	p.entries = append(p.entries, payloadEntry{key: key, values: values})
}

// Get returns the scalar value for key, or "" when absent.
func (p *Payload) Get(key string) string {
	for _, e := range p.entries {
		if e.key == key {
			return e.value
		}
	}
	return ""
}

// Has reports whether the payload carries the field, scalar or list.
func (p *Payload) Has(key string) bool {
	for _, e := range p.entries {
		if e.key == key {
			return true
		}
	}
	return false
}

// Keys returns the semantic field names in insertion order. List fields
// appear once, under their bare name.
func (p *Payload) Keys() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.key
	}
	return out
}

// Encode flattens the payload to wire form: scalars as-is, list fields as
// indexed keys name[i] in element order. The transport accepts only flat
// key/value pairs, so no bare list key is ever emitted.
func (p *Payload) Encode() url.Values {
	values := url.Values{}
	for _, e := range p.entries {
		if e.values != nil {
			for i, item := range e.values {
				values.Set(fmt.Sprintf("%s[%d]", e.key, i), item)
			}
			continue
		}
		values.Set(e.key, e.value)
	}
	return values
}
