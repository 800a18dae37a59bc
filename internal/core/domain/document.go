package domain

// DocumentType is the canonical tag of an onboarding document.
type DocumentType string

const (
	DocBuktiKemitraan    DocumentType = "BUKTI_KEMITRAAN"
	DocDokumenLegal      DocumentType = "DOKUMEN_LEGAL"
	DocSuratPernyataanIP DocumentType = "SURAT_PERYATAAN_IP"
	DocDokumenKYC        DocumentType = "DOKUMEN_KYC"
	DocDokumenBilling    DocumentType = "DOKUMEN_BILLING"
	DocDokumenPajak      DocumentType = "DOKUMEN_PAJAK"
)

// documentSpec ties a canonical type to the user attribute that stores it and
// to the localized keys clients send for it.
type documentSpec struct {
	Type    DocumentType
	Field   string
	Aliases []string
}

// documentSpecs is the alias table. Order is the canonical slot order.
var documentSpecs = []documentSpec{
	{DocBuktiKemitraan, "buktiKemitraan", []string{"buktiKemitraanBudaya", "buktiKemitraan"}},
	{DocDokumenLegal, "dokumenLegal", []string{"dokumenLegal"}},
	{DocSuratPernyataanIP, "suratPernyataanIp", []string{"suratPernyataanIP", "suratPernyataanIp"}},
	{DocDokumenKYC, "dokumenKYC", []string{"dokumenKYC"}},
	{DocDokumenBilling, "dokumenBilling", []string{"dokumenBilling"}},
	{DocDokumenPajak, "dokumenPajak", []string{"dokumenPajak"}},
}

var (
	specByType  = make(map[DocumentType]documentSpec, len(documentSpecs))
	typeByKey   = make(map[string]DocumentType)
	typeByField = make(map[string]DocumentType, len(documentSpecs))
)

func init() {
	for _, s := range documentSpecs {
		specByType[s.Type] = s
		typeByField[s.Field] = s.Type
		typeByKey[string(s.Type)] = s.Type
		for _, a := range s.Aliases {
			typeByKey[a] = s.Type
		}
	}
}

// DocumentTypes returns every canonical type in slot order.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, len(documentSpecs))
	for i, s := range documentSpecs {
		out[i] = s.Type
	}
	return out
}

// ParseDocumentType accepts canonical tags only.
func ParseDocumentType(s string) (DocumentType, bool) {
	_, ok := specByType[DocumentType(s)]
	return DocumentType(s), ok
}

// DocumentTypeForKey resolves a canonical tag or any localized alias.
func DocumentTypeForKey(key string) (DocumentType, bool) {
	t, ok := typeByKey[key]
	return t, ok
}

// FieldNames returns the form field names accepted for a type: localized
// aliases first, then the canonical tag.
func (t DocumentType) FieldNames() []string {
	s, ok := specByType[t]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(s.Aliases)+1)
	names = append(names, s.Aliases...)
	return append(names, string(t))
}

// Field is the user attribute a document type is stored under.
func (t DocumentType) Field() string {
	return specByType[t].Field
}

// Document is one uploaded onboarding artifact.
type Document struct {
	Type     DocumentType `json:"type"`
	URL      string       `json:"url"`
	Filename string       `json:"filename,omitempty"`
	Required bool         `json:"required,omitempty"`
}

// FilePayload is raw file content received from a client.
type FilePayload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DocumentURLs holds at most one URL per document type.
type DocumentURLs map[DocumentType]string

// FromDocuments stores each document's URL, later entries overwriting earlier ones.
func FromDocuments(docs []Document) DocumentURLs {
	if len(docs) == 0 {
		return nil
	}
	out := make(DocumentURLs, len(docs))
	for _, d := range docs {
		out[d.Type] = d.URL
	}
	return out
}
