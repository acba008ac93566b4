package core

// Panels toggled by the intake flow.
const (
	PanelWarn        = "warn"
	PanelGetData     = "getData"
	PanelCreateVault = "createVault"
	PanelReviewVault = "reviewVault"
	PanelBuyer       = "buyer"
	PanelApproved    = "approved"
	PanelBankTop     = "bankTop"
	PanelBankBottom  = "bankBottom"
	PanelAdjustCard  = "adjCard"
	PanelAdjustBank  = "adjBank"
)

// Input elements read from and written back to the view.
const (
	ElemCardNumber       = "ccNo"
	ElemCardCVV          = "cvv"
	ElemCardExpiry       = "exp"
	ElemAccountNumber    = "achNo"
	ElemRoutingNumber    = "routeNo"
	ElemAdjCardNumber    = "adjCcNo"
	ElemAdjCardCVV       = "adjCv"
	ElemAdjCardExpiry    = "adjExp"
	ElemAdjAccountNumber = "adjAch"
	ElemAdjRoutingNumber = "adjRoute"
)

// Buttons and their labels.
const (
	ButtonSaveCard   = "saveCard"
	ButtonSaveBank   = "saveAch"
	ButtonUpdateCard = "updateCard"
	ButtonUpdateBank = "updateBank"

	LabelSaveCard    = "Save Card"
	LabelSaveBank    = "Save Bank"
	LabelCardSaved   = "Card Saved"
	LabelBankSaved   = "Bank Saved"
	LabelUpdateCard  = "Update Card"
	LabelUpdateBank  = "Update Bank"
	LabelCardUpdated = "Card Updated"
	LabelBankUpdated = "Bank Updated"
	LabelSaving      = "Saving..."
)

// User-facing messages.
const (
	MsgMemberNotLoaded    = "Member data not loaded. Please refresh page."
	MsgSessionExpired     = "Your session has expired. Please refresh page."
	MsgRecordLoadFailed   = "Unable to load your vault. Please refresh page."
	MsgCardSaveFailed     = "Failed to save card securely. Please try again."
	MsgBankSaveFailed     = "Failed to save bank data securely. Please try again."
	MsgCardUpdateFailed   = "Failed to update card securely. Please try again."
	MsgBankUpdateFailed   = "Failed to update bank securely. Please try again."
	MsgCardFieldsRequired = "Please fill in all card fields before saving."
	MsgBankFieldsRequired = "Please fill in all bank fields before saving."
	MsgCardUpdateFields   = "Please fill in all card fields before updating."
	MsgBankUpdateFields   = "Please fill in all bank fields before updating."
	MsgCardNumberInvalid  = "Card number must contain at least 4 digits."
	MsgAccountInvalid     = "Account and routing numbers must contain at least 4 digits."
	MsgCardUpdated        = "Card information updated successfully"
	MsgBankUpdated        = "Bank information updated successfully"
	MsgPaymentSaved       = "Payment information saved successfully!"
	MsgRedirectFailed     = "Unable to redirect. Your payment information has been saved successfully."
	MsgVaultComplete      = "Vault setup complete! You are now an approved seller."
	MsgApprovalFailed     = "Unable to complete seller approval. Please try again."
	MsgAlreadyInProgress  = "This action is already in progress."
)

const maskedPlaceholder = "****"

// renderReview shows the read-only state of an approved seller.
func renderReview(view View) {
	view.Collapse(PanelWarn, PanelCreateVault, PanelBuyer)
	view.Expand(PanelReviewVault, PanelBankTop, PanelBankBottom, PanelApproved)
}

// renderWarn shows credential capture to a verified seller.
func renderWarn(view View) {
	view.Expand(PanelWarn, PanelGetData, PanelCreateVault)
	view.Collapse(PanelBuyer, PanelApproved, PanelReviewVault)
}

// renderBuyerReview shows the buyer-only state.
func renderBuyerReview(view View, buyerVerified bool) {
	view.Collapse(PanelWarn, PanelCreateVault)
	view.Expand(PanelReviewVault)
	if buyerVerified {
		view.Expand(PanelBuyer)
		view.Collapse(PanelBankTop, PanelBankBottom)
	} else {
		view.Expand(PanelApproved)
	}
}

// renderCompletion shows the end state when no redirect happens.
func renderCompletion(view View) {
	view.Collapse(PanelCreateVault, PanelWarn)
	view.Expand(PanelReviewVault, PanelApproved)
	view.ShowSuccess(MsgVaultComplete)
}

func placeholderFor(last4 string) string {
	if last4 == "" {
		return maskedPlaceholder
	}
	return MaskedValue(last4)
}
