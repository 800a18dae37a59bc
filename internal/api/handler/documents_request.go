package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"

	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// documentObject is the object form of one document value.
type documentObject struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Required bool   `json:"required"`
}

var errDocumentsJSON = domain.Validation("documents must be an array or an object")

// parseDocumentsJSON reads the documents value of a request. It accepts an
// array of {type, url, filename?, required?} objects or an object keyed by
// document field names whose values are URL strings or {url, filename?,
// required?} objects. Object keys are returned in the order they appear.
func parseDocumentsJSON(raw []byte) ([]ports.DocumentEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		return parseDocumentList(raw)
	case '{':
		return parseDocumentMap(raw)
	default:
		return nil, errDocumentsJSON
	}
}

func parseDocumentList(raw []byte) ([]ports.DocumentEntry, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errDocumentsJSON
	}

	entries := make([]ports.DocumentEntry, 0, len(items))
	for _, item := range items {
		var d documentObject
		if err := json.Unmarshal(item, &d); err != nil || d.Type == "" {
			continue
		}
		entries = append(entries, ports.DocumentEntry{
			Key:      d.Type,
			URL:      strings.TrimSpace(d.URL),
			Filename: d.Filename,
			Required: d.Required,
			Listed:   true,
		})
	}
	return entries, nil
}

// parseDocumentMap walks the object token by token; json.Unmarshal into a map
// would lose key order and with it the last-write-wins resolution.
func parseDocumentMap(raw []byte) ([]ports.DocumentEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, errDocumentsJSON
	}

	var entries []ports.DocumentEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, errDocumentsJSON
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, errDocumentsJSON
		}
		if e, ok := documentValue(key, value); ok {
			entries = append(entries, e)
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, errDocumentsJSON
	}
	return entries, nil
}

// documentValue decodes a keyed document value. Values that are neither a
// non-empty string nor an object are skipped.
func documentValue(key string, value json.RawMessage) (ports.DocumentEntry, bool) {
	var url string
	if err := json.Unmarshal(value, &url); err == nil {
		if url = strings.TrimSpace(url); url == "" {
			return ports.DocumentEntry{}, false
		}
		return ports.DocumentEntry{Key: key, URL: url}, true
	}

	if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
		return ports.DocumentEntry{}, false
	}
	var d documentObject
	if err := json.Unmarshal(value, &d); err != nil {
		return ports.DocumentEntry{}, false
	}
	return ports.DocumentEntry{
		Key:      key,
		URL:      strings.TrimSpace(d.URL),
		Filename: d.Filename,
		Required: d.Required,
	}, true
}

// formDocuments collects document slots from a multipart form. For each
// type the localized field names are read before the canonical one. A file
// part takes precedence over a text value with the same name.
func formDocuments(form *multipart.Form, maxBytes int64) ([]ports.DocumentEntry, error) {
	var entries []ports.DocumentEntry
	for _, t := range domain.DocumentTypes() {
		for _, name := range t.FieldNames() {
			if files := form.File[name]; len(files) > 0 {
				payload, err := readFormFile(files[0], maxBytes)
				if err != nil {
					return nil, err
				}
				entries = append(entries, ports.DocumentEntry{Key: name, Filename: payload.Filename, File: payload})
				continue
			}
			if v := formValue(form, name); v != "" {
				entries = append(entries, ports.DocumentEntry{Key: name, URL: v})
			}
		}
	}

	if raw := formValue(form, "documents"); raw != "" {
		more, err := parseDocumentsJSON([]byte(raw))
		if err != nil {
			return nil, err
		}
		entries = append(entries, more...)
	}
	return entries, nil
}

// readFormFile loads a file part, rejecting parts larger than maxBytes.
func readFormFile(fh *multipart.FileHeader, maxBytes int64) (*domain.FilePayload, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, domain.Validation("file %s exceeds the %d byte limit", fh.Filename, maxBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.Validation("file %s exceeds the %d byte limit", fh.Filename, maxBytes)
	}
	return &domain.FilePayload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func formValue(form *multipart.Form, name string) string {
	if vs := form.Value[name]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// firstNonEmpty returns the first non-blank value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// objectOrNil decodes raw as a JSON object and returns nil for anything else.
func objectOrNil(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
