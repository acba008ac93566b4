package models

// Collection names used by the document store.
const (
	SellerCollection         = "VerifiedMembers"
	ApprovedSellerCollection = "approvedSellers"
	ErrorLogCollection       = "ErrorLogs"
	VaultSecretCollection    = "vaultSecrets"
)

// SellerRecord is the persisted verification state of a member, keyed by member id.
// Only masked last-4 markers are ever stored here.
type SellerRecord struct {
	ID                 string `json:"_id" mapstructure:"_id"`
	WixID              string `json:"wixId,omitempty" mapstructure:"wixId"`
	FullName           string `json:"fullName,omitempty" mapstructure:"fullName"`
	Email              string `json:"email,omitempty" mapstructure:"email"`
	FirstName          string `json:"firstName,omitempty" mapstructure:"firstName"`
	LastName           string `json:"lastName,omitempty" mapstructure:"lastName"`
	MemberRef          string `json:"memberref,omitempty" mapstructure:"memberref"`
	ApprovalDate       string `json:"approvalDate,omitempty" mapstructure:"approvalDate"`
	VerificationMethod string `json:"verificationMethod,omitempty" mapstructure:"verificationMethod"`
	VerificationDate   string `json:"verificationDate,omitempty" mapstructure:"verificationDate"`

	// SellerVerified is a pointer because an explicit false blocks credential intake
	// while an absent value does not.
	SellerVerified *bool `json:"sellerVerified,omitempty" mapstructure:"sellerVerified"`
	BuyerVerified  bool  `json:"buyerVerified" mapstructure:"buyerVerified"`
	ApprovedSeller bool  `json:"approvedSeller" mapstructure:"approvedSeller"`
	RVVerified     bool  `json:"rvVerified" mapstructure:"rvVerified"`
	AdminApproved  bool  `json:"adminApproved" mapstructure:"adminApproved"`

	Status            string `json:"status,omitempty" mapstructure:"status"`
	MemberState       int    `json:"memberState,omitempty" mapstructure:"memberState"`
	StateDescriptions string `json:"stateDescriptions,omitempty" mapstructure:"stateDescriptions"`
	ApprovedBy        string `json:"approvedBy,omitempty" mapstructure:"approvedBy"`
	CustomerID        string `json:"customerId" mapstructure:"customerId"`
	AcctID            string `json:"acctId" mapstructure:"acctId"`
	MainVault         string `json:"mainVault,omitempty" mapstructure:"mainVault"`
	MemberVault       string `json:"memberVault,omitempty" mapstructure:"memberVault"`

	Last4CC    string `json:"last4cc,omitempty" mapstructure:"last4cc"`
	Last4ACH   string `json:"last4ach,omitempty" mapstructure:"last4ach"`
	Last4Route string `json:"last4route,omitempty" mapstructure:"last4route"`
	Payee      string `json:"payee,omitempty" mapstructure:"payee"`
}

// IsSellerBlocked reports whether the record explicitly marks the member as not seller-verified.
func (r *SellerRecord) IsSellerBlocked() bool {
	return r != nil && r.SellerVerified != nil && !*r.SellerVerified
}

// IsSellerVerified reports an explicit sellerVerified=true.
func (r *SellerRecord) IsSellerVerified() bool {
	return r != nil && r.SellerVerified != nil && *r.SellerVerified
}

// Clone returns a copy that does not share the SellerVerified pointer.
func (r *SellerRecord) Clone() *SellerRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.SellerVerified != nil {
		v := *r.SellerVerified
		c.SellerVerified = &v
	}
	return &c
}

// ApprovedSellerRecord is the denormalized copy of an approved seller plus the
// append-only history of vault receipts. At most one exists per member id.
type ApprovedSellerRecord struct {
	SellerRecord `mapstructure:",squash"`
	Vault        []VaultReceipt `json:"vault" mapstructure:"vault"`
}

// Bool is a small helper for optional flags.
func Bool(v bool) *bool { return &v }
