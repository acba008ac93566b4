package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/models"
)

// Action names double as in-flight keys and error log contexts.
const (
	ActionOpen             = "open"
	ActionSaveCard         = "handleCardSave"
	ActionSaveBank         = "handleAchSave"
	ActionUpdateCard       = "handleCardUpdate"
	ActionUpdateBank       = "handleBankUpdate"
	ActionChangeCard       = "changeCard"
	ActionChangeBank       = "changeBank"
	ActionCancelCardUpdate = "cancelCardUpdate"
	ActionCancelBankUpdate = "cancelBankUpdate"
	ActionCheckApproval    = "checkForSellerApproval"
	ActionFinalizeVault    = "finalizeVault"
)

// inputError is a user correctable validation failure with its own message.
type inputError struct {
	message string
}

func (e *inputError) Error() string { return e.message }
func (e *inputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(message string) error { return &inputError{message: message} }

// action describes how one user action is guarded and presented.
type action struct {
	name           string
	button         string
	idleLabel      string
	draft          models.DraftKind
	sellerOnly     bool
	failureMessage string
}

type intakeController struct {
	sessions *SessionRegistry
	sellers  db.SellerRepository
	approved db.ApprovedSellerRepository
	vault    VaultClient
	engine   ApprovalEngine
	errorLog ErrorLogService
	logger   *zap.Logger
}

// NewIntakeController wires the intake orchestration.
func NewIntakeController(
	sessions *SessionRegistry,
	sellers db.SellerRepository,
	approved db.ApprovedSellerRepository,
	vault VaultClient,
	engine ApprovalEngine,
	errorLog ErrorLogService,
	logger *zap.Logger,
) IntakeController {
	return &intakeController{
		sessions: sessions,
		sellers:  sellers,
		approved: approved,
		vault:    vault,
		engine:   engine,
		errorLog: errorLog,
		logger:   logger,
	}
}

// Open resolves the member, loads the seller record and renders the panel state.
func (c *intakeController) Open(ctx context.Context, member *models.Member, redirectTarget string, view View) (*Session, error) {
	if !member.Resolved() {
		view.ShowError(MsgMemberNotLoaded)
		return nil, &MemberUnresolvedError{Action: ActionOpen}
	}

	record, err := c.sellers.GetByID(ctx, member.ID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		record = &models.SellerRecord{
			ID:        member.ID,
			WixID:     member.ID,
			FirstName: member.FirstName,
			LastName:  member.LastName,
			Email:     member.Email,
		}
	case err != nil:
		perr := &PersistenceError{Op: "get", Collection: models.SellerCollection, Err: err}
		c.errorLog.Record(ctx, perr, ActionOpen, member.ID)
		view.ShowError(MsgRecordLoadFailed)
		return nil, perr
	}

	session := c.sessions.Open(member, redirectTarget)
	session.work.Lock()
	defer session.work.Unlock()
	session.Record = record
	session.publishState()

	switch StateOf(record) {
	case StateApprovedSeller:
		renderReview(view)
	case StateSellerVerified:
		renderWarn(view)
	default:
		renderBuyerReview(view, record.BuyerVerified)
	}
	showMaskedValues(view, record)

	c.logger.Info("Intake session opened",
		zap.String("memberId", member.ID),
		zap.String("state", string(StateOf(record))),
		zap.Bool("hasRedirect", redirectTarget != ""))
	return session, nil
}

func (c *intakeController) SubmitCard(ctx context.Context, member *models.Member, view View) error {
	a := action{
		name:           ActionSaveCard,
		button:         ButtonSaveCard,
		idleLabel:      LabelSaveCard,
		draft:          models.DraftCard,
		sellerOnly:     true,
		failureMessage: MsgCardSaveFailed,
	}
	return c.run(ctx, member, view, a, func(s *Session) error {
		number := strings.TrimSpace(view.FieldValue(ElemCardNumber))
		cvv := strings.TrimSpace(view.FieldValue(ElemCardCVV))
		expiry := strings.TrimSpace(view.FieldValue(ElemCardExpiry))
		if err := validateCard(number, cvv, expiry, MsgCardFieldsRequired); err != nil {
			return err
		}
		if err := c.stageCard(s, number, cvv, expiry); err != nil {
			return err
		}
		if _, err := c.storeDraft(ctx, s, models.DraftCard); err != nil {
			return err
		}
		if err := c.persistMasked(ctx, s); err != nil {
			return err
		}

		view.SetButton(ButtonSaveCard, LabelCardSaved, false)
		view.SetFieldValue(ElemCardNumber, MaskedValue(s.Staging.Staged().Last4CC))
		return c.advance(ctx, s, view)
	})
}

func (c *intakeController) SubmitBank(ctx context.Context, member *models.Member, view View) error {
	a := action{
		name:           ActionSaveBank,
		button:         ButtonSaveBank,
		idleLabel:      LabelSaveBank,
		draft:          models.DraftBank,
		sellerOnly:     true,
		failureMessage: MsgBankSaveFailed,
	}
	return c.run(ctx, member, view, a, func(s *Session) error {
		account := strings.TrimSpace(view.FieldValue(ElemAccountNumber))
		routing := strings.TrimSpace(view.FieldValue(ElemRoutingNumber))
		if err := validateBank(account, routing, MsgBankFieldsRequired); err != nil {
			return err
		}
		if err := c.stageBank(s, account, routing); err != nil {
			return err
		}
		if _, err := c.storeDraft(ctx, s, models.DraftBank); err != nil {
			return err
		}
		if err := c.persistMasked(ctx, s); err != nil {
			return err
		}

		view.SetButton(ButtonSaveBank, LabelBankSaved, false)
		view.SetFieldValue(ElemAccountNumber, MaskedValue(s.Staging.Staged().Last4ACH))
		return c.advance(ctx, s, view)
	})
}

func (c *intakeController) UpdateCard(ctx context.Context, member *models.Member, view View) error {
	a := action{
		name:           ActionUpdateCard,
		button:         ButtonUpdateCard,
		idleLabel:      LabelUpdateCard,
		draft:          models.DraftCard,
		sellerOnly:     true,
		failureMessage: MsgCardUpdateFailed,
	}
	return c.run(ctx, member, view, a, func(s *Session) error {
		number := strings.TrimSpace(view.FieldValue(ElemAdjCardNumber))
		cvv := strings.TrimSpace(view.FieldValue(ElemAdjCardCVV))
		expiry := strings.TrimSpace(view.FieldValue(ElemAdjCardExpiry))
		if err := validateCard(number, cvv, expiry, MsgCardUpdateFields); err != nil {
			return err
		}
		if err := c.stageCard(s, number, cvv, expiry); err != nil {
			return err
		}
		receipt, err := c.storeDraft(ctx, s, models.DraftCard)
		if err != nil {
			return err
		}
		if err := c.persistMasked(ctx, s); err != nil {
			return err
		}
		c.appendReceipt(ctx, s, *receipt)

		view.SetButton(ButtonUpdateCard, LabelCardUpdated, true)
		view.SetFieldValue(ElemCardNumber, MaskedValue(s.Record.Last4CC))
		view.SetFieldValue(ElemCardExpiry, expiry)
		clearAdjustCard(view)
		view.Collapse(PanelAdjustCard)
		view.ShowSuccess(MsgCardUpdated)
		return nil
	})
}

func (c *intakeController) UpdateBank(ctx context.Context, member *models.Member, view View) error {
	a := action{
		name:           ActionUpdateBank,
		button:         ButtonUpdateBank,
		idleLabel:      LabelUpdateBank,
		draft:          models.DraftBank,
		sellerOnly:     true,
		failureMessage: MsgBankUpdateFailed,
	}
	return c.run(ctx, member, view, a, func(s *Session) error {
		account := strings.TrimSpace(view.FieldValue(ElemAdjAccountNumber))
		routing := strings.TrimSpace(view.FieldValue(ElemAdjRoutingNumber))
		if err := validateBank(account, routing, MsgBankUpdateFields); err != nil {
			return err
		}
		if err := c.stageBank(s, account, routing); err != nil {
			return err
		}
		receipt, err := c.storeDraft(ctx, s, models.DraftBank)
		if err != nil {
			return err
		}
		if err := c.persistMasked(ctx, s); err != nil {
			return err
		}
		c.appendReceipt(ctx, s, *receipt)

		view.SetButton(ButtonUpdateBank, LabelBankUpdated, true)
		view.SetFieldValue(ElemAccountNumber, MaskedValue(s.Record.Last4ACH))
		clearAdjustBank(view)
		view.Collapse(PanelAdjustBank)
		view.ShowSuccess(MsgBankUpdated)
		return nil
	})
}

func (c *intakeController) ChangeCard(ctx context.Context, member *models.Member, view View) error {
	return c.run(ctx, member, view, action{name: ActionChangeCard}, func(s *Session) error {
		clearAdjustCard(view)
		view.SetPlaceholder(ElemAdjCardNumber, placeholderFor(s.Record.Last4CC))
		view.Expand(PanelAdjustCard)
		return nil
	})
}

func (c *intakeController) ChangeBank(ctx context.Context, member *models.Member, view View) error {
	return c.run(ctx, member, view, action{name: ActionChangeBank}, func(s *Session) error {
		clearAdjustBank(view)
		view.SetPlaceholder(ElemAdjAccountNumber, placeholderFor(s.Record.Last4ACH))
		view.SetPlaceholder(ElemAdjRoutingNumber, placeholderFor(s.Record.Last4Route))
		view.Expand(PanelAdjustBank)
		return nil
	})
}

func (c *intakeController) CancelCardUpdate(ctx context.Context, member *models.Member, view View) error {
	return c.run(ctx, member, view, action{name: ActionCancelCardUpdate, draft: models.DraftCard}, func(s *Session) error {
		clearAdjustCard(view)
		view.Collapse(PanelAdjustCard)
		return nil
	})
}

func (c *intakeController) CancelBankUpdate(ctx context.Context, member *models.Member, view View) error {
	return c.run(ctx, member, view, action{name: ActionCancelBankUpdate, draft: models.DraftBank}, func(s *Session) error {
		clearAdjustBank(view)
		view.Collapse(PanelAdjustBank)
		return nil
	})
}

func (c *intakeController) CheckApproval(ctx context.Context, member *models.Member, view View) (*ApprovalOutcome, error) {
	var outcome *ApprovalOutcome
	a := action{name: ActionCheckApproval, failureMessage: MsgApprovalFailed}
	err := c.run(ctx, member, view, a, func(s *Session) error {
		out, err := c.engine.Check(ctx, s.Member, s.Record, s.Staging)
		if err != nil {
			return err
		}
		outcome = out
		if out.State == StateApprovedSeller {
			renderReview(view)
		}
		return nil
	})
	return outcome, err
}

// FinalizeVault processes a submission owned by member and cleans it up. The
// payload is read only to check ownership and is never returned.
func (c *intakeController) FinalizeVault(ctx context.Context, member *models.Member, vaultID string, processingResult map[string]interface{}) (*models.FinalizeResult, error) {
	if !member.Resolved() {
		return nil, &MemberUnresolvedError{Action: ActionFinalizeVault}
	}

	payload, err := c.vault.Retrieve(ctx, vaultID)
	if err != nil {
		c.errorLog.Record(ctx, err, ActionFinalizeVault, member.ID)
		return nil, err
	}
	if payload.UserID != member.ID {
		c.logger.Warn("Finalize attempted on a foreign vault submission", zap.String("memberId", member.ID), zap.String("vaultId", vaultID))
		return nil, ErrVaultNotOwned
	}

	result, err := c.vault.Finalize(ctx, vaultID, processingResult)
	if err != nil {
		c.errorLog.Record(ctx, err, ActionFinalizeVault, member.ID)
		return nil, err
	}
	if result.CleanupErr != nil {
		c.errorLog.Record(ctx, fmt.Errorf("finalize succeeded but cleanup failed: %w", result.CleanupErr), ActionFinalizeVault, member.ID)
	}
	return result, nil
}

// run is the action boundary: it resolves the session, rejects double
// submission, disables the button while running, restores staged fields on
// failure, logs the failure and always releases the action's draft.
func (c *intakeController) run(ctx context.Context, member *models.Member, view View, a action, fn func(s *Session) error) error {
	if !member.Resolved() {
		err := &MemberUnresolvedError{Action: a.name}
		c.errorLog.Record(ctx, err, a.name, "")
		view.ShowError(MsgMemberNotLoaded)
		return err
	}

	s, err := c.sessions.Get(member.ID)
	if err != nil {
		view.ShowError(MsgSessionExpired)
		return err
	}

	if !s.begin(a.name) {
		view.ShowError(MsgAlreadyInProgress)
		return ErrActionInFlight
	}
	defer s.end(a.name)

	s.work.Lock()
	defer s.work.Unlock()
	defer s.publishState()

	if a.draft != "" {
		defer s.Staging.ClearDraft(a.draft)
	}

	if a.sellerOnly && s.Record.IsSellerBlocked() {
		c.logger.Info("Ignoring credential action for a member who is not seller verified",
			zap.String("memberId", member.ID), zap.String("action", a.name))
		return ErrSellerNotVerified
	}

	if a.button != "" {
		view.SetButton(a.button, LabelSaving, false)
	}

	snapshot := s.Staging.Staged()
	if err := fn(s); err != nil {
		s.Staging.Restore(snapshot)
		if a.button != "" {
			view.SetButton(a.button, a.idleLabel, true)
		}
		view.ShowError(c.userMessage(a, err))
		if !errors.Is(err, ErrInvalidInput) {
			c.errorLog.Record(ctx, err, a.name, member.ID)
		}
		return err
	}
	return nil
}

func (c *intakeController) userMessage(a action, err error) string {
	var inErr *inputError
	if errors.As(err, &inErr) {
		return inErr.message
	}
	var incomplete *IncompleteDataError
	if errors.As(err, &incomplete) {
		return fmt.Sprintf("Payment save failed: %s. Please try again.", incomplete.Error())
	}
	if errors.Is(err, ErrMemberUnresolved) {
		return MsgMemberNotLoaded
	}
	if a.failureMessage != "" {
		return a.failureMessage
	}
	return "Something went wrong. Please try again."
}

func (c *intakeController) stageCard(s *Session, number, cvv, expiry string) error {
	for _, f := range [][2]string{
		{FieldCardNumber, number},
		{FieldCardCVV, cvv},
		{FieldCardExpiry, expiry},
		{FieldPayee, s.Member.ID},
	} {
		if err := s.Staging.SetField(f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func (c *intakeController) stageBank(s *Session, account, routing string) error {
	for _, f := range [][2]string{
		{FieldAccountNumber, account},
		{FieldRoutingNumber, routing},
		{FieldPayee, s.Member.ID},
	} {
		if err := s.Staging.SetField(f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

// storeDraft sends the draft of kind to the vault and stages the receipt.
func (c *intakeController) storeDraft(ctx context.Context, s *Session, kind models.DraftKind) (*models.VaultReceipt, error) {
	card, bank := s.Staging.GetDraft(kind)
	payload := BuildVaultPayload(s.Member.ID, s.Staging.Staged(), kind, card, bank)
	receipt, err := c.vault.Store(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.Staging.SetReceipt(*receipt)
	return receipt, nil
}

// persistMasked saves the staged last-4 markers onto the seller record.
func (c *intakeController) persistMasked(ctx context.Context, s *Session) error {
	next := mergeStaged(s.Record, s.Staging.Staged(), s.Member)
	next.FirstName = firstNonEmpty(next.FirstName, s.Member.FirstName)
	next.LastName = firstNonEmpty(next.LastName, s.Member.LastName)
	next.Email = firstNonEmpty(next.Email, s.Member.Email)
	if err := c.sellers.Save(ctx, next); err != nil {
		return &PersistenceError{Op: "save", Collection: models.SellerCollection, Err: err}
	}
	*s.Record = *next
	return nil
}

// appendReceipt adds receipt to the approved seller history when the member has
// one. Raw credentials are never copied there. Failures are logged and do not
// undo the update.
func (c *intakeController) appendReceipt(ctx context.Context, s *Session, receipt models.VaultReceipt) {
	entry, err := c.approved.FindByMemberID(ctx, s.Member.ID)
	if errors.Is(err, db.ErrNotFound) {
		return
	}
	if err == nil {
		entry.Vault = append(entry.Vault, receipt)
		entry.Last4CC = s.Record.Last4CC
		entry.Last4ACH = s.Record.Last4ACH
		entry.Last4Route = s.Record.Last4Route
		entry.Payee = s.Record.Payee
		err = c.approved.Save(ctx, entry)
	}
	if err != nil {
		c.errorLog.Record(ctx, &PersistenceError{Op: "append receipt", Collection: models.ApprovedSellerCollection, Err: err}, "appendVaultReceipt", s.Member.ID)
	}
}

// advance re-checks approval and completes the intake once both markers are staged.
func (c *intakeController) advance(ctx context.Context, s *Session, view View) error {
	if _, err := c.engine.Check(ctx, s.Member, s.Record, s.Staging); err != nil {
		return err
	}
	staged := s.Staging.Staged()
	if staged.Last4CC == "" || staged.Last4ACH == "" {
		return nil
	}
	if _, err := c.engine.SaveBothAndAdvance(ctx, s.Member, s.Record, s.Staging); err != nil {
		return err
	}
	c.complete(s, view)
	return nil
}

// complete navigates to the captured target when it is safe, otherwise shows
// the completion view.
func (c *intakeController) complete(s *Session, view View) {
	view.ShowSuccess(MsgPaymentSaved)
	if s.RedirectTarget == "" {
		renderCompletion(view)
		return
	}
	target, err := ResolveRedirect(s.RedirectTarget)
	if err != nil {
		c.logger.Warn("Rejected redirect target, staying on vault page", zap.String("memberId", s.Member.ID), zap.Error(err))
		view.ShowError(MsgRedirectFailed)
		renderCompletion(view)
		return
	}
	view.Navigate(target)
}

func validateCard(number, cvv, expiry, missingMessage string) error {
	if number == "" || cvv == "" || expiry == "" {
		return invalidInput(missingMessage)
	}
	if !IsNumberInput(number) {
		return invalidInput(MsgCardNumberInvalid)
	}
	return nil
}

func validateBank(account, routing, missingMessage string) error {
	if account == "" || routing == "" {
		return invalidInput(missingMessage)
	}
	if !IsNumberInput(account) || !IsNumberInput(routing) {
		return invalidInput(MsgAccountInvalid)
	}
	return nil
}

func showMaskedValues(view View, record *models.SellerRecord) {
	if record.Last4CC != "" {
		view.SetFieldValue(ElemCardNumber, MaskedValue(record.Last4CC))
	}
	if record.Last4ACH != "" {
		view.SetFieldValue(ElemAccountNumber, MaskedValue(record.Last4ACH))
	}
}

func clearAdjustCard(view View) {
	view.SetFieldValue(ElemAdjCardNumber, "")
	view.SetFieldValue(ElemAdjCardCVV, "")
	view.SetFieldValue(ElemAdjCardExpiry, "")
}

func clearAdjustBank(view View) {
	view.SetFieldValue(ElemAdjAccountNumber, "")
	view.SetFieldValue(ElemAdjRoutingNumber, "")
}
