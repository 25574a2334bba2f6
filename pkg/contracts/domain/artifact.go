package domain

// FileArtifact is a named blob passed across the service boundary: an
// uploaded input file on the way in, a rendered workbook or archive on
// the way out. Content is immutable once constructed.
type FileArtifact struct {
	Name    string `json:"name"`
	Content []byte `json:"content,omitempty"`
}

// Size returns the content length in bytes.
func (f FileArtifact) Size() int {
	return len(f.Content)
}

// DocumentType identifies one of the report generators.
type DocumentType string

const (
	DocumentTypeAgingReport    DocumentType = "AgingReport"
	DocumentTypeInventory      DocumentType = "Inventory"
	DocumentTypeBankStatement  DocumentType = "BankStatement"
	DocumentTypePaymentExtract DocumentType = "PaymentExtract"
)

// String returns the document type as used in artifact names.
func (d DocumentType) String() string {
	return string(d)
}
