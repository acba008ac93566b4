package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/models"
)

// SellerState is a member's position on the seller track.
type SellerState string

const (
	StateUnverified     SellerState = "unverified"
	StateSellerVerified SellerState = "sellerVerified"
	StateApprovedSeller SellerState = "approvedSeller"
)

// Literal values written by a completed intake.
const (
	verificationMethodPayment = "Payment Collection"
	statusVerified            = "verified"
	memberStateApproved       = 3
	stateDescriptionApproved  = "Payment verified - approved seller"
	approvedByAdmin           = "admin"
	vaultActive               = "active"
	vaultConfigured           = "configured"
	approvalDateLayout        = "2006-01-02"
)

// ApprovalOutcome reports what a Check did.
type ApprovalOutcome struct {
	State    SellerState          `json:"state"`
	Promoted bool                 `json:"promoted"`
	Indexed  bool                 `json:"indexed"`
	Record   *models.SellerRecord `json:"-"`
}

// StateOf derives the seller state of a persisted record.
func StateOf(record *models.SellerRecord) SellerState {
	switch {
	case record == nil:
		return StateUnverified
	case record.ApprovedSeller:
		return StateApprovedSeller
	case record.IsSellerVerified():
		return StateSellerVerified
	default:
		return StateUnverified
	}
}

type approvalEngine struct {
	sellers   db.SellerRepository
	approved  db.ApprovedSellerRepository
	publisher EventPublisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewApprovalEngine creates an ApprovalEngine. publisher may be nil.
func NewApprovalEngine(sellers db.SellerRepository, approved db.ApprovedSellerRepository, publisher EventPublisher, logger *zap.Logger) ApprovalEngine {
	return &approvalEngine{
		sellers:   sellers,
		approved:  approved,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

func (e *approvalEngine) State(record *models.SellerRecord) SellerState {
	return StateOf(record)
}

// Check promotes the member to approved seller once card and bank markers are on
// file, staged or persisted. On success record is updated in place. On failure
// neither record, staging nor the approved sellers index is changed.
func (e *approvalEngine) Check(ctx context.Context, member *models.Member, record *models.SellerRecord, staging *CredentialStaging) (*ApprovalOutcome, error) {
	if !member.Resolved() {
		return nil, &MemberUnresolvedError{Action: "check seller approval"}
	}
	if record == nil {
		return nil, errors.New("approval check requires a seller record")
	}

	staged := staging.Staged()
	outcome := &ApprovalOutcome{State: StateOf(record), Record: record}
	if record.ApprovedSeller {
		return outcome, nil
	}
	if !hasCardMarker(staged, record) || !hasBankMarkers(staged, record) {
		e.logger.Debug("Seller approval not yet possible",
			zap.String("memberId", member.ID),
			zap.Bool("hasCard", hasCardMarker(staged, record)),
			zap.Bool("hasBank", hasBankMarkers(staged, record)))
		return outcome, nil
	}

	prior := record.Clone()
	merged := mergeStaged(record, staged, member)
	merged.ApprovedSeller = true

	if err := e.sellers.Save(ctx, merged); err != nil {
		return outcome, &PersistenceError{Op: "save", Collection: models.SellerCollection, Err: err}
	}

	exists, err := e.approved.ExistsByMemberID(ctx, member.ID)
	if err != nil {
		e.compensate(ctx, prior)
		return outcome, &PersistenceError{Op: "query", Collection: models.ApprovedSellerCollection, Err: err}
	}
	if !exists {
		entry := &models.ApprovedSellerRecord{SellerRecord: *merged.Clone(), Vault: []models.VaultReceipt{}}
		if staged.Receipt != nil {
			entry.Vault = append(entry.Vault, *staged.Receipt)
		}
		switch err := e.approved.Insert(ctx, entry); {
		case err == nil:
			outcome.Indexed = true
		case errors.Is(err, db.ErrAlreadyExists):
			// Lost a race with another session; the index already has the member.
			e.logger.Warn("Approved seller inserted concurrently", zap.String("memberId", member.ID))
		default:
			e.compensate(ctx, prior)
			return outcome, &PersistenceError{Op: "insert", Collection: models.ApprovedSellerCollection, Err: err}
		}
	} else {
		e.logger.Info("Member already present in approved sellers", zap.String("memberId", member.ID))
	}

	staging.MarkApproved()
	*record = *merged
	outcome.Promoted = true
	outcome.State = StateApprovedSeller
	e.logger.Info("Member promoted to approved seller", zap.String("memberId", member.ID), zap.Bool("indexed", outcome.Indexed))

	e.publishApproved(ctx, member, merged)
	return outcome, nil
}

// SaveBothAndAdvance writes the completed seller snapshot and releases the drafts.
// It requires a resolved member and staged last4cc, last4ach and payee; on any
// failure the persisted record is left as it was.
func (e *approvalEngine) SaveBothAndAdvance(ctx context.Context, member *models.Member, record *models.SellerRecord, staging *CredentialStaging) (*models.SellerRecord, error) {
	if !member.Resolved() {
		return nil, &MemberUnresolvedError{Action: "save payment information"}
	}

	staged := staging.Staged()
	var missing []string
	if staged.Last4CC == "" {
		missing = append(missing, FieldLast4CC)
	}
	if staged.Last4ACH == "" {
		missing = append(missing, FieldLast4ACH)
	}
	if staged.Payee == "" {
		missing = append(missing, FieldPayee)
	}
	if len(missing) > 0 {
		return nil, &IncompleteDataError{Fields: missing}
	}

	base := record.Clone()
	if base == nil {
		base = &models.SellerRecord{}
	}
	wasApproved := base.ApprovedSeller
	snapshot := completedSnapshot(base, staged, member, e.now())

	if err := e.sellers.Save(ctx, snapshot); err != nil {
		return nil, &PersistenceError{Op: "save", Collection: models.SellerCollection, Err: err}
	}

	staging.ClearAll()
	if record != nil {
		*record = *snapshot.Clone()
	}
	e.logger.Info("Both payment methods saved, member advanced to approved seller", zap.String("memberId", member.ID))

	if !wasApproved {
		e.publishApproved(ctx, member, snapshot)
	}
	return snapshot, nil
}

func (e *approvalEngine) compensate(ctx context.Context, prior *models.SellerRecord) {
	if err := e.sellers.Save(ctx, prior); err != nil {
		e.logger.Error("Failed to restore seller record after aborted promotion",
			zap.String("memberId", prior.ID), zap.Error(err))
	}
}

func (e *approvalEngine) publishApproved(ctx context.Context, member *models.Member, record *models.SellerRecord) {
	if e.publisher == nil {
		return
	}
	event := models.SellerApprovedEvent{
		Type:       models.SellerApprovedEventType,
		MemberID:   member.ID,
		Email:      firstNonEmpty(record.Email, member.Email),
		FullName:   firstNonEmpty(record.FullName, member.FullName()),
		ApprovedAt: e.now().UTC(),
	}
	if err := e.publisher.PublishSellerApproved(ctx, event); err != nil {
		e.logger.Warn("Failed to publish seller approved event", zap.String("memberId", member.ID), zap.Error(err))
	}
}

func hasCardMarker(staged models.StagedFields, record *models.SellerRecord) bool {
	return staged.Last4CC != "" || record.Last4CC != ""
}

func hasBankMarkers(staged models.StagedFields, record *models.SellerRecord) bool {
	return (staged.Last4ACH != "" || record.Last4ACH != "") &&
		(staged.Last4Route != "" || record.Last4Route != "")
}

// mergeStaged overlays non-empty staged values on a copy of record.
func mergeStaged(record *models.SellerRecord, staged models.StagedFields, member *models.Member) *models.SellerRecord {
	merged := record.Clone()
	merged.ID = member.ID
	merged.WixID = member.ID
	if staged.Last4CC != "" {
		merged.Last4CC = staged.Last4CC
	}
	if staged.Last4ACH != "" {
		merged.Last4ACH = staged.Last4ACH
	}
	if staged.Last4Route != "" {
		merged.Last4Route = staged.Last4Route
	}
	if staged.Payee != "" {
		merged.Payee = staged.Payee
	}
	return merged
}

func completedSnapshot(base *models.SellerRecord, staged models.StagedFields, member *models.Member, now time.Time) *models.SellerRecord {
	s := mergeStaged(base, staged, member)
	s.FirstName = firstNonEmpty(base.FirstName, member.FirstName)
	s.LastName = firstNonEmpty(base.LastName, member.LastName)
	s.Email = firstNonEmpty(base.Email, member.Email)
	s.FullName = (&models.Member{FirstName: s.FirstName, LastName: s.LastName}).FullName()
	s.MemberRef = member.ID

	date := now.Format(approvalDateLayout)
	s.ApprovalDate = date
	s.VerificationDate = date
	s.VerificationMethod = verificationMethodPayment
	s.SellerVerified = models.Bool(true)
	s.Status = statusVerified
	s.MemberState = memberStateApproved
	s.StateDescriptions = stateDescriptionApproved
	s.ApprovedBy = approvedByAdmin
	s.RVVerified = true
	s.AdminApproved = true
	s.BuyerVerified = true
	s.ApprovedSeller = true
	s.CustomerID = ""
	s.AcctID = ""
	s.MainVault = vaultActive
	s.MemberVault = vaultConfigured
	s.Last4CC = staged.Last4CC
	s.Last4ACH = staged.Last4ACH
	s.Payee = staged.Payee
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
