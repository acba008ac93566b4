package models

// CardInput is the card form submitted by the client.
type CardInput struct {
	Number string `json:"number"`
	CVV    string `json:"cvv"`
	Expiry string `json:"expiry"`
}

// BankInput is the bank form submitted by the client.
type BankInput struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
}

// FinalizeVaultRequest is the body of the finalize endpoint.
type FinalizeVaultRequest struct {
	ProcessingResult map[string]interface{} `json:"processingResult"`
}
