package documents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/numerator"
	"stockerp/internal/core/tx"
	"stockerp/internal/core/types"
	"stockerp/internal/domain"
	"stockerp/internal/domain/access"
	"stockerp/internal/domain/ledger"
	"stockerp/pkg/logger"
)

var tracer = otel.Tracer("stockerp/documents")

// Locker serializes work on one key across goroutines or instances.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// PriceResolver supplies default sales prices.
type PriceResolver interface {
	ResolvePrice(ctx context.Context, itemID id.ID, qty types.Quantity) (price, discountPercent types.Money, ok bool, err error)
}

// Config holds the collaborators of Service.
type Config struct {
	Repo      Repository
	Ledger    *ledger.Service
	Numbers   *numerator.Service
	Evaluator *access.Evaluator
	TxManager tx.Manager
	Locker    Locker
	Prices    PriceResolver
	Notifier  ledger.Notifier
}

// Service runs document lifecycles. Each operation checks the caller's
// permission snapshot from the context before touching storage.
type Service struct {
	repo     Repository
	ledger   *ledger.Service
	numbers  *numerator.Service
	access   *access.Evaluator
	txm      tx.Manager
	locker   Locker
	prices   PriceResolver
	notifier ledger.Notifier
}

// NewService creates the document service.
func NewService(cfg Config) *Service {
	for _, t := range AllTypes() {
		cfg.Numbers.Register(string(t), numerator.DefaultConfig(t.Prefix()))
	}
	return &Service{
		repo:     cfg.Repo,
		ledger:   cfg.Ledger,
		numbers:  cfg.Numbers,
		access:   cfg.Evaluator,
		txm:      cfg.TxManager,
		locker:   cfg.Locker,
		prices:   cfg.Prices,
		notifier: cfg.Notifier,
	}
}

// LineInput is a requested document line.
type LineInput struct {
	ItemID          id.ID           `json:"itemId"`
	Quantity        types.Quantity  `json:"quantity"`
	UnitPrice       *types.Money    `json:"unitPrice,omitempty"`
	DiscountPercent types.Money     `json:"discountPercent"`
	SourceLineNo    *int            `json:"sourceLineNo,omitempty"`
	SystemQty       *types.Quantity `json:"systemQty,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// CreateInput holds the fields of a new document.
type CreateInput struct {
	Type                   DocType     `json:"type"`
	CounterpartyID         *string     `json:"counterpartyId,omitempty"`
	WarehouseID            id.ID       `json:"warehouseId"`
	DestinationWarehouseID *id.ID      `json:"destinationWarehouseId,omitempty"`
	SourceDocID            *id.ID      `json:"sourceDocId,omitempty"`
	TaxPercent             types.Money `json:"taxPercent"`
	DiscountPercent        types.Money `json:"discountPercent"`
	AllowNegative          bool        `json:"allowNegative"`
	Notes                  string      `json:"notes,omitempty"`
	Lines                  []LineInput `json:"lines"`
}

// UpdateInput replaces the editable fields of a document in its initial status.
type UpdateInput struct {
	Version                int         `json:"version"`
	CounterpartyID         *string     `json:"counterpartyId,omitempty"`
	WarehouseID            id.ID       `json:"warehouseId"`
	DestinationWarehouseID *id.ID      `json:"destinationWarehouseId,omitempty"`
	TaxPercent             types.Money `json:"taxPercent"`
	DiscountPercent        types.Money `json:"discountPercent"`
	AllowNegative          bool        `json:"allowNegative"`
	Notes                  string      `json:"notes,omitempty"`
	Lines                  []LineInput `json:"lines"`
}

// Create validates and stores a new document in its initial status.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Document, error) {
	if !in.Type.Valid() {
		return nil, apperror.NewValidation("unknown document type").WithDetail("field", "type")
	}
	snap := access.SnapshotFromContext(ctx)
	if err := s.access.Require(snap, in.Type.Resource(), access.ActionCreate); err != nil {
		return nil, err
	}

	doc := &Document{
		BaseEntity:             entity.NewBaseEntity(appctx.GetUserID(ctx)),
		Type:                   in.Type,
		Status:                 in.Type.InitialStatus(),
		CounterpartyID:         in.CounterpartyID,
		WarehouseID:            in.WarehouseID,
		DestinationWarehouseID: in.DestinationWarehouseID,
		SourceDocID:            in.SourceDocID,
		TaxPercent:             in.TaxPercent,
		DiscountPercent:        in.DiscountPercent,
		AllowNegative:          in.AllowNegative,
		Notes:                  strings.TrimSpace(in.Notes),
	}

	if err := s.checkScope(snap, doc); err != nil {
		return nil, err
	}

	lines := in.Lines
	if len(lines) == 0 && doc.Type == TypePickList && doc.SourceDocID != nil {
		var err error
		if lines, err = s.pickLinesFromOrder(ctx, *doc.SourceDocID); err != nil {
			return nil, err
		}
	}
	if err := s.buildLines(ctx, doc, lines); err != nil {
		return nil, err
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.checkSource(ctx, doc); err != nil {
		return nil, err
	}
	Recalculate(doc)

	num, err := s.numbers.NextDocNumber(ctx, string(doc.Type))
	if err != nil {
		return nil, fmt.Errorf("next document number: %w", err)
	}
	doc.Number = num.Number
	doc.NumberFallback = num.UsedFallback

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return err
		}
		return s.audit(ctx, doc, AuditCreate, "", "")
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "document created",
		"doc_id", doc.ID,
		"type", doc.Type,
		"number", doc.Number,
		"number_fallback", doc.NumberFallback,
		"lines", len(doc.Lines),
	)
	return doc, nil
}

// Get returns a document the caller may read.
func (s *Service) Get(ctx context.Context, docID id.ID) (*Document, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	snap := access.SnapshotFromContext(ctx)
	if err := s.access.Require(snap, doc.Type.Resource(), access.ActionRead); err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns documents of the types the caller may read.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Document], error) {
	snap := access.SnapshotFromContext(ctx)

	requested := filter.Types
	if len(requested) == 0 {
		requested = AllTypes()
	}
	readable := make([]DocType, 0, len(requested))
	for _, t := range requested {
		if !t.Valid() {
			return domain.ListResult[*Document]{}, apperror.NewValidation(fmt.Sprintf("unknown document type %q", t))
		}
		if s.access.HasPermission(snap, t.Resource(), access.ActionRead) {
			readable = append(readable, t)
		}
	}
	if len(readable) == 0 {
		if len(filter.Types) > 0 {
			return domain.ListResult[*Document]{}, apperror.NewPermissionDenied(string(filter.Types[0].Resource()), string(access.ActionRead))
		}
		return domain.Page([]*Document{}, filter.ListFilter), nil
	}

	filter.Types = readable
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

// History returns the audit log of a document, oldest first.
func (s *Service) History(ctx context.Context, docID id.ID) ([]AuditEntry, error) {
	if _, err := s.Get(ctx, docID); err != nil {
		return nil, err
	}
	return s.repo.ListAudit(ctx, docID)
}

// UpdateDraft replaces header fields and lines while the document is in its initial status.
// Only the creator or an approver may edit.
func (s *Service) UpdateDraft(ctx context.Context, docID id.ID, in UpdateInput) (*Document, error) {
	var out *Document
	err := s.withDocument(ctx, docID, func(ctx context.Context, doc *Document) error {
		snap := access.SnapshotFromContext(ctx)
		if err := s.access.Require(snap, doc.Type.Resource(), access.ActionUpdate); err != nil {
			return err
		}
		if doc.Status != doc.Type.InitialStatus() {
			return apperror.NewInvalidStateTransition(string(doc.Type), string(doc.Status), AuditUpdate)
		}
		if doc.CreatedBy != snap.UserID() && !s.access.HasPermission(snap, doc.Type.Resource(), access.ActionApprove) {
			return apperror.NewPermissionDenied(string(doc.Type.Resource()), string(access.ActionUpdate)).
				WithDetail("reason", "only the creator or an approver may edit")
		}
		if in.Version != 0 && in.Version != doc.Version {
			return apperror.NewConflict("document was modified by another request").
				WithDetail("expectedVersion", in.Version).
				WithDetail("actualVersion", doc.Version)
		}

		expected := doc.Version
		doc.CounterpartyID = in.CounterpartyID
		doc.WarehouseID = in.WarehouseID
		doc.DestinationWarehouseID = in.DestinationWarehouseID
		doc.TaxPercent = in.TaxPercent
		doc.DiscountPercent = in.DiscountPercent
		doc.AllowNegative = in.AllowNegative
		doc.Notes = strings.TrimSpace(in.Notes)

		if err := s.checkScope(snap, doc); err != nil {
			return err
		}
		if err := s.buildLines(ctx, doc, in.Lines); err != nil {
			return err
		}
		if err := doc.Validate(ctx); err != nil {
			return err
		}
		if err := s.checkSource(ctx, doc); err != nil {
			return err
		}
		Recalculate(doc)
		doc.Touch()

		if err := s.repo.Update(ctx, doc, expected); err != nil {
			return err
		}
		out = doc
		return s.audit(ctx, doc, AuditUpdate, doc.Status, "")
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Transition applies a lifecycle action. Ledger effects, linked document updates,
// the status change and the audit entry commit together or not at all.
func (s *Service) Transition(ctx context.Context, docID id.ID, action Action, note string) (*Document, error) {
	ctx, span := tracer.Start(ctx, "documents.transition",
		trace.WithAttributes(
			attribute.String("doc.id", docID.String()),
			attribute.String("doc.action", string(action)),
		))
	defer span.End()

	var (
		out     *Document
		touched []id.ID
		from    Status
	)
	err := s.withDocument(ctx, docID, func(ctx context.Context, doc *Document) error {
		snap := access.SnapshotFromContext(ctx)
		if err := s.access.Require(snap, doc.Type.Resource(), PermissionVerb(action)); err != nil {
			return err
		}
		if err := s.checkScope(snap, doc); err != nil {
			return err
		}

		from = doc.Status
		to, err := Next(doc.Type, from, action)
		if err != nil {
			return err
		}

		expected := doc.Version
		if touched, err = s.applyEffects(ctx, doc, from, action); err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.Status = to
		switch action {
		case ActionApprove:
			approver := snap.UserID()
			doc.ApprovedBy = &approver
		case ActionComplete, ActionPost:
			doc.CompletedAt = &now
		}
		doc.Touch()

		if err := s.repo.Update(ctx, doc, expected); err != nil {
			return err
		}
		out = doc
		return s.audit(ctx, doc, string(action), from, note)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn(ctx, "document transition rejected",
			"doc_id", docID,
			"action", action,
			"code", apperror.Kind(err),
			"error", err,
		)
		return nil, err
	}

	span.SetAttributes(attribute.String("doc.status", string(out.Status)))
	logger.Info(ctx, "document transitioned",
		"doc_id", out.ID,
		"number", out.Number,
		"action", action,
		"from", from,
		"to", out.Status,
	)
	s.notify(ctx, touched)
	return out, nil
}

// RecordCount stores the counted quantity of a cycle count line.
// The first count moves a draft count to in_progress.
func (s *Service) RecordCount(ctx context.Context, docID id.ID, lineNo int, counted types.Quantity) (*Document, error) {
	if counted.IsNegative() {
		return nil, apperror.NewValidation("counted quantity cannot be negative").WithDetail("field", "countedQty")
	}

	var out *Document
	err := s.withDocument(ctx, docID, func(ctx context.Context, doc *Document) error {
		if doc.Type != TypeCycleCount {
			return apperror.NewValidation("counts can only be recorded on cycle counts")
		}
		if err := s.requireLineWork(ctx, doc); err != nil {
			return err
		}
		if doc.Status != StatusDraft && doc.Status != StatusInProgress {
			return apperror.NewInvalidStateTransition(string(doc.Type), string(doc.Status), AuditCount)
		}
		line, ok := doc.Line(lineNo)
		if !ok {
			return apperror.NewNotFound("cycle count line", lineNo)
		}

		expected := doc.Version
		from := doc.Status
		c := counted
		line.CountedQty = &c
		line.Counted = true
		if doc.Status == StatusDraft {
			doc.Status = StatusInProgress
		}
		doc.Touch()

		if err := s.repo.Update(ctx, doc, expected); err != nil {
			return err
		}
		out = doc
		return s.audit(ctx, doc, AuditCount, from, fmt.Sprintf("line %d counted %s", lineNo, counted))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPick adds qty to the picked quantity of a pick list line, never above the required quantity.
// The first pick moves a pending list to in_progress.
func (s *Service) RecordPick(ctx context.Context, docID id.ID, lineNo int, qty types.Quantity) (*Document, error) {
	if !qty.IsPositive() {
		return nil, apperror.NewValidation("picked quantity must be positive").WithDetail("field", "quantity")
	}

	var out *Document
	err := s.withDocument(ctx, docID, func(ctx context.Context, doc *Document) error {
		if doc.Type != TypePickList {
			return apperror.NewValidation("picks can only be recorded on pick lists")
		}
		if err := s.requireLineWork(ctx, doc); err != nil {
			return err
		}
		if doc.Status != StatusPending && doc.Status != StatusInProgress {
			return apperror.NewInvalidStateTransition(string(doc.Type), string(doc.Status), AuditPick)
		}
		line, ok := doc.Line(lineNo)
		if !ok {
			return apperror.NewNotFound("pick list line", lineNo)
		}
		picked := line.PickedQty.Add(qty)
		if picked.GreaterThan(line.Quantity) {
			return apperror.NewValidation("picked quantity exceeds the required quantity").
				WithDetail("lineNo", lineNo).
				WithDetail("required", line.Quantity.String()).
				WithDetail("picked", picked.String())
		}

		expected := doc.Version
		from := doc.Status
		line.PickedQty = picked
		if doc.Status == StatusPending {
			doc.Status = StatusInProgress
		}
		doc.Touch()

		if err := s.repo.Update(ctx, doc, expected); err != nil {
			return err
		}
		out = doc
		return s.audit(ctx, doc, AuditPick, from, fmt.Sprintf("line %d picked %s", lineNo, qty))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Annotate appends a note to the audit log. Allowed in every status, including terminal ones.
func (s *Service) Annotate(ctx context.Context, docID id.ID, note string) (AuditEntry, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return AuditEntry{}, apperror.NewValidation("note is required").WithDetail("field", "note")
	}

	var entry AuditEntry
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetByID(ctx, docID)
		if err != nil {
			return err
		}
		snap := access.SnapshotFromContext(ctx)
		if err := s.access.Require(snap, doc.Type.Resource(), access.ActionRead); err != nil {
			return err
		}
		entry, err = s.newAuditEntry(ctx, doc, AuditAnnotate, doc.Status, note)
		if err != nil {
			return err
		}
		return s.repo.AppendAudit(ctx, entry)
	})
	if err != nil {
		return AuditEntry{}, err
	}
	return entry, nil
}

// withDocument locks the document, loads it for update and runs fn in one transaction.
func (s *Service) withDocument(ctx context.Context, docID id.ID, fn func(ctx context.Context, doc *Document) error) error {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "document:"+docID.String())
		if err != nil {
			return err
		}
		defer unlock()
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		return fn(ctx, doc)
	})
}

// checkScope enforces warehouse access and the allow-negative override permission.
func (s *Service) checkScope(snap access.Snapshot, doc *Document) error {
	if err := s.access.RequireWarehouse(snap, doc.WarehouseID); err != nil {
		return err
	}
	if doc.DestinationWarehouseID != nil {
		if err := s.access.RequireWarehouse(snap, *doc.DestinationWarehouseID); err != nil {
			return err
		}
	}
	if doc.AllowNegative {
		if err := s.access.Require(snap, access.ResourceStock, access.ActionApprove); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				appErr.WithDetail("reason", "allowNegative requires approve on stock")
			}
			return err
		}
	}
	return nil
}

func (s *Service) requireLineWork(ctx context.Context, doc *Document) error {
	snap := access.SnapshotFromContext(ctx)
	if err := s.access.Require(snap, doc.Type.Resource(), access.ActionUpdate); err != nil {
		return err
	}
	return s.access.RequireWarehouse(snap, doc.WarehouseID)
}

// buildLines numbers the lines and fills type-specific defaults.
func (s *Service) buildLines(ctx context.Context, doc *Document, inputs []LineInput) error {
	lines := make([]Line, 0, len(inputs))
	for i, in := range inputs {
		l := Line{
			LineNo:          i + 1,
			ItemID:          in.ItemID,
			Quantity:        in.Quantity,
			UnitPrice:       types.Zero(),
			DiscountPercent: in.DiscountPercent,
			ReceivedQty:     types.Zero(),
			DeliveredQty:    types.Zero(),
			PickedQty:       types.Zero(),
			SourceLineNo:    in.SourceLineNo,
			Notes:           in.Notes,
		}
		if in.UnitPrice != nil {
			l.UnitPrice = *in.UnitPrice
		}

		switch doc.Type {
		case TypeSalesOrder:
			if in.UnitPrice == nil && s.prices != nil {
				price, discount, ok, err := s.prices.ResolvePrice(ctx, in.ItemID, in.Quantity)
				if err != nil {
					return fmt.Errorf("resolve price: %w", err)
				}
				if ok {
					l.UnitPrice = price
					if l.DiscountPercent.IsZero() {
						l.DiscountPercent = discount
					}
				}
			}
		case TypeCycleCount:
			if err := s.captureSystemQty(ctx, doc.WarehouseID, &l, in); err != nil {
				return err
			}
		}
		lines = append(lines, l)
	}
	doc.Lines = lines
	return nil
}

// captureSystemQty records the ledger quantity and cost of a cycle count line.
func (s *Service) captureSystemQty(ctx context.Context, warehouseID id.ID, l *Line, in LineInput) error {
	if in.SystemQty != nil && in.UnitPrice != nil {
		sys := *in.SystemQty
		l.SystemQty = &sys
		l.Quantity = sys
		return nil
	}
	stock, err := s.ledger.Stock(ctx, l.ItemID, warehouseID)
	if err != nil {
		return fmt.Errorf("read system quantity: %w", err)
	}
	sys := stock.OnHand
	if in.SystemQty != nil {
		sys = *in.SystemQty
	}
	l.SystemQty = &sys
	l.Quantity = sys
	if in.UnitPrice == nil {
		l.UnitPrice = stock.AverageCost
	}
	return nil
}

// checkSource validates the link between a receipt, delivery or pick list and its order.
func (s *Service) checkSource(ctx context.Context, doc *Document) error {
	if doc.SourceDocID == nil {
		return nil
	}
	var want DocType
	switch doc.Type {
	case TypeGoodsReceipt:
		want = TypePurchaseOrder
	case TypeDelivery, TypePickList:
		want = TypeSalesOrder
	default:
		return apperror.NewValidation(fmt.Sprintf("%s cannot reference a source document", doc.Type)).
			WithDetail("field", "sourceDocId")
	}

	source, err := s.repo.GetByID(ctx, *doc.SourceDocID)
	if err != nil {
		return err
	}
	if source.Type != want {
		return apperror.NewValidation(fmt.Sprintf("source document must be a %s", want)).
			WithDetail("field", "sourceDocId")
	}
	if source.Status != StatusApproved {
		return apperror.NewValidation("source document is not open").
			WithDetail("field", "sourceDocId").
			WithDetail("status", string(source.Status))
	}
	for _, l := range doc.Lines {
		if _, err := matchSourceLine(source, l); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) pickLinesFromOrder(ctx context.Context, orderID id.ID) ([]LineInput, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]LineInput, 0, len(order.Lines))
	for _, l := range order.Lines {
		open := l.OpenQty(order.Type)
		if !open.IsPositive() {
			continue
		}
		lineNo := l.LineNo
		out = append(out, LineInput{ItemID: l.ItemID, Quantity: open, SourceLineNo: &lineNo})
	}
	return out, nil
}

func (s *Service) audit(ctx context.Context, doc *Document, action string, from Status, note string) error {
	entry, err := s.newAuditEntry(ctx, doc, action, from, note)
	if err != nil {
		return err
	}
	return s.repo.AppendAudit(ctx, entry)
}

func (s *Service) newAuditEntry(ctx context.Context, doc *Document, action string, from Status, note string) (AuditEntry, error) {
	snapshot, err := json.Marshal(doc)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("marshal document snapshot: %w", err)
	}
	return AuditEntry{
		ID:         id.New(),
		DocumentID: doc.ID,
		Action:     action,
		FromStatus: from,
		ToStatus:   doc.Status,
		Note:       note,
		Actor:      appctx.GetUserID(ctx),
		CreatedAt:  time.Now().UTC(),
		Snapshot:   snapshot,
	}, nil
}

func (s *Service) notify(ctx context.Context, itemIDs []id.ID) {
	if s.notifier == nil || len(itemIDs) == 0 {
		return
	}
	s.notifier.StockChanged(ctx, itemIDs)
}
