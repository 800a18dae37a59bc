package service

import (
	"github.com/rupagen/marketplace-api/internal/core/domain"
	"github.com/rupagen/marketplace-api/internal/core/ports"
)

// NormalizeDocuments resolves client document entries into one canonical
// document per type and enforces the role's required-document policy.
//
// Entries whose key is not in the alias table are dropped. Listed entries
// must already carry a canonical type. When a type appears more than once the
// document keeps the position of its first occurrence and the content of its
// last. Entries must already be URL entries; files are uploaded beforehand.
func NormalizeDocuments(role domain.Role, entries []ports.DocumentEntry) ([]domain.Document, error) {
	docs := mergeDocuments(entries)

	required := role.RequiredDocuments()
	if len(required) > 0 {
		present := make(map[domain.DocumentType]bool, len(docs))
		for _, d := range docs {
			if d.URL != "" {
				present[d.Type] = true
			}
		}
		var missing []domain.DocumentType
		for _, t := range required {
			if !present[t] {
				missing = append(missing, t)
			}
		}
		if len(missing) > 0 {
			return nil, domain.MissingDocuments(role, missing)
		}
		for i := range docs {
			for _, t := range required {
				if docs[i].Type == t {
					docs[i].Required = true
				}
			}
		}
	}

	for _, d := range docs {
		if d.URL == "" {
			return nil, domain.Validation("document %s must include a url", d.Type)
		}
	}
	return docs, nil
}

func mergeDocuments(entries []ports.DocumentEntry) []domain.Document {
	var docs []domain.Document
	index := make(map[domain.DocumentType]int, len(entries))

	for _, e := range entries {
		var (
			t  domain.DocumentType
			ok bool
		)
		if e.Listed {
			t, ok = domain.ParseDocumentType(e.Key)
		} else {
			t, ok = domain.DocumentTypeForKey(e.Key)
		}
		if !ok {
			continue
		}

		doc := domain.Document{Type: t, URL: e.URL, Filename: e.Filename, Required: e.Required}
		if i, seen := index[t]; seen {
			docs[i] = doc
			continue
		}
		index[t] = len(docs)
		docs = append(docs, doc)
	}
	return docs
}
