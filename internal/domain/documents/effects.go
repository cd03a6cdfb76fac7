package documents

import (
	"context"
	"fmt"
	"time"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/ledger"
	"stockerp/pkg/logger"
)

// applyEffects performs the ledger side of a transition inside the caller's transaction.
// It returns the items whose balances changed.
func (s *Service) applyEffects(ctx context.Context, doc *Document, from Status, action Action) ([]id.ID, error) {
	switch {
	case doc.Type == TypePurchaseOrder && action == ActionApprove:
		return s.adjustOpen(ctx, doc, openAll, s.ledger.AdjustOnOrder, 1)

	case doc.Type == TypePurchaseOrder && action == ActionCancel && from == StatusApproved:
		return s.adjustOpen(ctx, doc, openRemaining, s.ledger.AdjustOnOrder, -1)

	case doc.Type == TypeSalesOrder && action == ActionApprove:
		return s.adjustOpen(ctx, doc, openAll, s.ledger.AdjustCommitted, 1)

	case doc.Type == TypeSalesOrder && action == ActionCancel && from == StatusApproved:
		return s.adjustOpen(ctx, doc, openRemaining, s.ledger.AdjustCommitted, -1)

	case doc.Type == TypeGoodsReceipt && action == ActionComplete:
		if err := s.moveLines(ctx, doc, entity.TxReceipt); err != nil {
			return nil, err
		}
		if doc.SourceDocID != nil {
			if err := s.fulfilSource(ctx, doc, purchaseFulfilment(s)); err != nil {
				return nil, err
			}
		}
		return doc.ItemIDs(), nil

	case doc.Type == TypeGoodsIssue && action == ActionComplete:
		if err := s.moveLines(ctx, doc, entity.TxIssue); err != nil {
			return nil, err
		}
		return doc.ItemIDs(), nil

	case doc.Type == TypeStockTransfer && action == ActionComplete:
		if err := s.transferLines(ctx, doc); err != nil {
			return nil, err
		}
		return doc.ItemIDs(), nil

	case doc.Type == TypeDelivery && action == ActionPost:
		if err := s.moveLines(ctx, doc, entity.TxIssue); err != nil {
			return nil, err
		}
		if doc.SourceDocID != nil {
			if err := s.fulfilSource(ctx, doc, salesFulfilment(s)); err != nil {
				return nil, err
			}
		}
		return doc.ItemIDs(), nil

	case doc.Type == TypeCycleCount && action == ActionComplete:
		return s.postCount(ctx, doc)
	}
	return nil, nil
}

type openQtyFunc func(DocType, Line) types.Quantity

func openAll(_ DocType, l Line) types.Quantity { return l.Quantity }

func openRemaining(t DocType, l Line) types.Quantity { return l.OpenQty(t) }

type adjustFunc func(ctx context.Context, itemID, warehouseID id.ID, delta types.Quantity) (entity.WarehouseStock, error)

// adjustOpen changes on-order or committed quantities by sign * open quantity per line.
func (s *Service) adjustOpen(ctx context.Context, doc *Document, open openQtyFunc, adjust adjustFunc, sign int64) ([]id.ID, error) {
	for _, l := range doc.Lines {
		qty := open(doc.Type, l)
		if !qty.IsPositive() {
			continue
		}
		if _, err := adjust(ctx, l.ItemID, doc.WarehouseID, qty.Mul(types.Qty(sign))); err != nil {
			return nil, fmt.Errorf("line %d: %w", l.LineNo, err)
		}
	}
	return doc.ItemIDs(), nil
}

// moveLines applies one movement per non-zero line at the document warehouse.
func (s *Service) moveLines(ctx context.Context, doc *Document, txType entity.TransactionType) error {
	movements := make([]ledger.Movement, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if l.Quantity.IsZero() {
			continue
		}
		qty := l.Quantity
		if txType.IsOutbound() {
			qty = qty.Neg()
		}
		movements = append(movements, ledger.Movement{
			ItemID:        l.ItemID,
			WarehouseID:   doc.WarehouseID,
			Type:          txType,
			Quantity:      qty,
			UnitCost:      l.UnitPrice,
			DocRef:        doc.Number,
			AllowNegative: doc.AllowNegative,
		})
	}
	if len(movements) == 0 {
		return apperror.NewValidation("document has no quantities to post")
	}
	_, err := s.ledger.ApplyMovements(ctx, movements)
	return err
}

func (s *Service) transferLines(ctx context.Context, doc *Document) error {
	reqs := make([]ledger.TransferRequest, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if l.Quantity.IsZero() {
			continue
		}
		reqs = append(reqs, ledger.TransferRequest{
			ItemID:          l.ItemID,
			FromWarehouseID: doc.WarehouseID,
			ToWarehouseID:   *doc.DestinationWarehouseID,
			Quantity:        l.Quantity,
			DocRef:          doc.Number,
			AllowNegative:   doc.AllowNegative,
		})
	}
	if len(reqs) == 0 {
		return apperror.NewValidation("document has no quantities to post")
	}
	_, err := s.ledger.TransferMany(ctx, reqs)
	return err
}

// postCount turns counted variances into adjustment movements.
func (s *Service) postCount(ctx context.Context, doc *Document) ([]id.ID, error) {
	movements := make([]ledger.Movement, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if !l.Counted {
			return nil, apperror.NewValidation("every line must be counted before completion").
				WithDetail("lineNo", l.LineNo)
		}
		variance := l.Variance()
		if variance.IsZero() {
			continue
		}
		movements = append(movements, ledger.Movement{
			ItemID:        l.ItemID,
			WarehouseID:   doc.WarehouseID,
			Type:          entity.TxAdjustment,
			Quantity:      variance,
			UnitCost:      l.UnitPrice,
			DocRef:        doc.Number,
			AllowNegative: doc.AllowNegative,
		})
	}
	if len(movements) == 0 {
		return nil, nil
	}
	if _, err := s.ledger.ApplyMovements(ctx, movements); err != nil {
		return nil, err
	}

	ids := make([]id.ID, 0, len(movements))
	for _, m := range movements {
		ids = append(ids, m.ItemID)
	}
	return ids, nil
}

// fulfilment describes how a child document advances its source order.
type fulfilment struct {
	sourceType DocType
	progress   func(*Line) *types.Quantity
	adjust     adjustFunc
}

func purchaseFulfilment(s *Service) fulfilment {
	return fulfilment{
		sourceType: TypePurchaseOrder,
		progress:   func(l *Line) *types.Quantity { return &l.ReceivedQty },
		adjust:     s.ledger.AdjustOnOrder,
	}
}

func salesFulfilment(s *Service) fulfilment {
	return fulfilment{
		sourceType: TypeSalesOrder,
		progress:   func(l *Line) *types.Quantity { return &l.DeliveredQty },
		adjust:     s.ledger.AdjustCommitted,
	}
}

// fulfilSource grows the source order's progress quantities, releases the matching
// on-order or committed quantity and completes the order once every line is fulfilled.
func (s *Service) fulfilSource(ctx context.Context, doc *Document, f fulfilment) error {
	source, err := s.repo.GetForUpdate(ctx, *doc.SourceDocID)
	if err != nil {
		return fmt.Errorf("load source document: %w", err)
	}
	if source.Type != f.sourceType {
		return apperror.NewValidation(fmt.Sprintf("source document must be a %s", f.sourceType)).
			WithDetail("sourceDocId", source.ID)
	}
	if source.Status != StatusApproved {
		return apperror.NewValidation("source document is not open").
			WithDetail("sourceDocId", source.ID).
			WithDetail("status", string(source.Status))
	}

	for _, l := range doc.Lines {
		if l.Quantity.IsZero() {
			continue
		}
		target, err := matchSourceLine(source, l)
		if err != nil {
			return err
		}

		release := types.MinQty(l.Quantity, target.OpenQty(source.Type))
		if release.IsPositive() {
			if _, err := f.adjust(ctx, target.ItemID, source.WarehouseID, release.Neg()); err != nil {
				return fmt.Errorf("release source line %d: %w", target.LineNo, err)
			}
		}
		p := f.progress(target)
		*p = p.Add(l.Quantity)
	}

	expected := source.Version
	source.Touch()

	completed := true
	for _, l := range source.Lines {
		if l.OpenQty(source.Type).IsPositive() {
			completed = false
			break
		}
	}
	from := source.Status
	if completed {
		now := time.Now().UTC()
		source.Status = StatusCompleted
		source.CompletedAt = &now
	}

	if err := s.repo.Update(ctx, source, expected); err != nil {
		return fmt.Errorf("update source document: %w", err)
	}

	action := AuditUpdate
	if completed {
		action = AuditAutoComplete
		logger.Info(ctx, "source document fully fulfilled",
			"doc_id", source.ID,
			"number", source.Number,
			"by", doc.Number,
		)
	}
	return s.audit(ctx, source, action, from, "fulfilled by "+doc.Number)
}

func matchSourceLine(source *Document, l Line) (*Line, error) {
	if l.SourceLineNo != nil {
		target, ok := source.Line(*l.SourceLineNo)
		if !ok {
			return nil, apperror.NewValidation("source line not found").
				WithDetail("lineNo", l.LineNo).
				WithDetail("sourceLineNo", *l.SourceLineNo)
		}
		if target.ItemID != l.ItemID {
			return nil, apperror.NewValidation("item does not match the source line").
				WithDetail("lineNo", l.LineNo)
		}
		return target, nil
	}

	var fallback *Line
	for i := range source.Lines {
		candidate := &source.Lines[i]
		if candidate.ItemID != l.ItemID {
			continue
		}
		if candidate.OpenQty(source.Type).IsPositive() {
			return candidate, nil
		}
		if fallback == nil {
			fallback = candidate
		}
	}
	if fallback == nil {
		return nil, apperror.NewValidation("item is not on the source document").
			WithDetail("lineNo", l.LineNo).
			WithDetail("itemId", l.ItemID)
	}
	return fallback, nil
}
