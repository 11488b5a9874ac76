package request

// CreateTransactionRequest carries everything a client may set on a new
// transaction. Amount travels as a string to avoid float rounding in
// transit; the service parses it into a decimal. Reference, status and
// receipt issuance are server-side only.
type CreateTransactionRequest struct {
	Method      string            `json:"method" validate:"required"`
	Amount      string            `json:"amount" validate:"required"`
	Currency    string            `json:"currency" validate:"required,len=3"`
	Purpose     string            `json:"purpose" validate:"required,oneof=tutorial booking other"`
	Description string            `json:"description" validate:"max=255"`
	RelatedKind *string           `json:"related_kind" validate:"omitempty,oneof=booking tutorial other"`
	RelatedID   *string           `json:"related_id" validate:"omitempty,uuid"`
	Metadata    map[string]string `json:"metadata"`
}
