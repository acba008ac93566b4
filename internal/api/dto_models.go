package api

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ButtonState is the rendered state of one action button.
type ButtonState struct {
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

// ViewResponse is the rendered result of an intake action. Panels maps a panel
// id to true (expanded) or false (collapsed); only panels touched by the action
// are present.
type ViewResponse struct {
	State          string                 `json:"state,omitempty"`
	Panels         map[string]bool        `json:"panels"`
	Fields         map[string]string      `json:"fields"`
	Placeholders   map[string]string      `json:"placeholders"`
	Buttons        map[string]ButtonState `json:"buttons"`
	ErrorMessage   string                 `json:"errorMessage,omitempty"`
	SuccessMessage string                 `json:"successMessage,omitempty"`
	NavigateTo     string                 `json:"navigateTo,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Promoted       *bool                  `json:"promoted,omitempty"`
}

// FinalizeResponse is returned by the finalize endpoint. The vault payload is never echoed.
type FinalizeResponse struct {
	VaultID        string `json:"vaultId"`
	Status         string `json:"status"`
	CleanupWarning string `json:"cleanupWarning,omitempty"`
}
