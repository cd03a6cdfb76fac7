// Package documents provides the business document lifecycle: purchase and sales orders,
// receipts, issues, transfers, deliveries, cycle counts, pick lists and purchase requests.
package documents

import (
	"context"
	"fmt"
	"slices"
	"time"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/access"
)

// DocType identifies a document family.
type DocType string

const (
	TypePurchaseOrder   DocType = "purchase_order"
	TypePurchaseRequest DocType = "purchase_request"
	TypeGoodsReceipt    DocType = "goods_receipt"
	TypeGoodsIssue      DocType = "goods_issue"
	TypeStockTransfer   DocType = "stock_transfer"
	TypeSalesOrder      DocType = "sales_order"
	TypeDelivery        DocType = "delivery"
	TypeCycleCount      DocType = "cycle_count"
	TypePickList        DocType = "pick_list"
)

type typeInfo struct {
	prefix   string
	resource access.Resource
	module   access.Module
	initial  Status
}

var typeInfos = map[DocType]typeInfo{
	TypePurchaseOrder:   {"PO", access.ResourcePurchaseOrders, access.ModuleProcurement, StatusDraft},
	TypePurchaseRequest: {"PR", access.ResourcePurchaseRequests, access.ModuleProcurement, StatusDraft},
	TypeGoodsReceipt:    {"GRN", access.ResourceGoodsReceipts, access.ModuleInventory, StatusDraft},
	TypeGoodsIssue:      {"GIN", access.ResourceGoodsIssues, access.ModuleInventory, StatusDraft},
	TypeStockTransfer:   {"TRF", access.ResourceStockTransfers, access.ModuleInventory, StatusDraft},
	TypeSalesOrder:      {"SO", access.ResourceSalesOrders, access.ModuleSales, StatusDraft},
	TypeDelivery:        {"DN", access.ResourceDeliveries, access.ModuleSales, StatusDraft},
	TypeCycleCount:      {"CC", access.ResourceCycleCounts, access.ModuleInventory, StatusDraft},
	TypePickList:        {"PL", access.ResourcePickLists, access.ModuleOperations, StatusPending},
}

// AllTypes returns every document type in a stable order.
func AllTypes() []DocType {
	out := make([]DocType, 0, len(typeInfos))
	for t := range typeInfos {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	_, ok := typeInfos[t]
	return ok
}

// Prefix returns the numbering prefix (e.g. "PO").
func (t DocType) Prefix() string { return typeInfos[t].prefix }

// Resource returns the permission resource guarding the type.
func (t DocType) Resource() access.Resource { return typeInfos[t].resource }

// Module returns the ERP module owning the type.
func (t DocType) Module() access.Module { return typeInfos[t].module }

// InitialStatus returns the status of a freshly created document.
func (t DocType) InitialStatus() Status { return typeInfos[t].initial }

// ParseDocType validates a document type name.
func ParseDocType(s string) (DocType, error) {
	t := DocType(s)
	if !t.Valid() {
		return "", apperror.NewValidation(fmt.Sprintf("unknown document type %q", s)).WithDetail("field", "type")
	}
	return t, nil
}

// Status is a document lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusApproved   Status = "approved"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusPosted     Status = "posted"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// Action is a lifecycle command.
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionReject   Action = "reject"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionPost     Action = "post"
	ActionCancel   Action = "cancel"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionSubmit, ActionApprove, ActionReject, ActionStart, ActionComplete, ActionPost, ActionCancel:
		return a, nil
	}
	return "", apperror.NewValidation(fmt.Sprintf("unknown action %q", s)).WithDetail("field", "action")
}

// Line is one row of a document. Progress fields are used by specific types only.
type Line struct {
	LineNo          int            `db:"line_no" json:"lineNo"`
	ItemID          id.ID          `db:"item_id" json:"itemId"`
	Quantity        types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice       types.Money    `db:"unit_price" json:"unitPrice"`
	DiscountPercent types.Money    `db:"discount_percent" json:"discountPercent"`
	LineTotal       types.Money    `db:"line_total" json:"lineTotal"`

	// ReceivedQty is the quantity received against a purchase order line.
	ReceivedQty types.Quantity `db:"received_qty" json:"receivedQty"`
	// DeliveredQty is the quantity delivered against a sales order line.
	DeliveredQty types.Quantity `db:"delivered_qty" json:"deliveredQty"`
	// SourceLineNo points into the source document (receipts, deliveries, pick lists).
	SourceLineNo *int `db:"source_line_no" json:"sourceLineNo,omitempty"`

	SystemQty  *types.Quantity `db:"system_qty" json:"systemQty,omitempty"`
	CountedQty *types.Quantity `db:"counted_qty" json:"countedQty,omitempty"`
	Counted    bool            `db:"counted" json:"counted"`

	PickedQty types.Quantity `db:"picked_qty" json:"pickedQty"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// OpenQty returns the quantity not yet received or delivered.
func (l Line) OpenQty(t DocType) types.Quantity {
	switch t {
	case TypePurchaseOrder:
		return types.ClampZero(l.Quantity.Sub(l.ReceivedQty))
	case TypeSalesOrder:
		return types.ClampZero(l.Quantity.Sub(l.DeliveredQty))
	case TypePickList:
		return types.ClampZero(l.Quantity.Sub(l.PickedQty))
	}
	return l.Quantity
}

// Variance returns counted minus system quantity of a cycle count line.
func (l Line) Variance() types.Quantity {
	if l.CountedQty == nil {
		return types.Zero()
	}
	system := types.Zero()
	if l.SystemQty != nil {
		system = *l.SystemQty
	}
	return l.CountedQty.Sub(system)
}

// Document is the common header of every document type plus its lines.
type Document struct {
	entity.BaseEntity

	Type           DocType `db:"doc_type" json:"type"`
	Number         string  `db:"number" json:"number"`
	NumberFallback bool    `db:"number_fallback" json:"numberFallback"`
	Status         Status  `db:"status" json:"status"`

	CounterpartyID         *string `db:"counterparty_id" json:"counterpartyId,omitempty"`
	WarehouseID            id.ID   `db:"warehouse_id" json:"warehouseId"`
	DestinationWarehouseID *id.ID  `db:"destination_warehouse_id" json:"destinationWarehouseId,omitempty"`
	SourceDocID            *id.ID  `db:"source_doc_id" json:"sourceDocId,omitempty"`

	TaxPercent      types.Money `db:"tax_percent" json:"taxPercent"`
	DiscountPercent types.Money `db:"discount_percent" json:"discountPercent"`
	Subtotal        types.Money `db:"subtotal" json:"subtotal"`
	DiscountAmount  types.Money `db:"discount_amount" json:"discountAmount"`
	TaxAmount       types.Money `db:"tax_amount" json:"taxAmount"`
	Total           types.Money `db:"total" json:"total"`

	// AllowNegative lets outbound movements of this document overdraw stock.
	AllowNegative bool   `db:"allow_negative" json:"allowNegative"`
	Notes         string `db:"notes" json:"notes,omitempty"`

	ApprovedBy  *string    `db:"approved_by" json:"approvedBy,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := *d
	c.Lines = make([]Line, len(d.Lines))
	for i, l := range d.Lines {
		if l.SourceLineNo != nil {
			v := *l.SourceLineNo
			l.SourceLineNo = &v
		}
		if l.SystemQty != nil {
			v := *l.SystemQty
			l.SystemQty = &v
		}
		if l.CountedQty != nil {
			v := *l.CountedQty
			l.CountedQty = &v
		}
		c.Lines[i] = l
	}
	if d.CounterpartyID != nil {
		v := *d.CounterpartyID
		c.CounterpartyID = &v
	}
	if d.DestinationWarehouseID != nil {
		v := *d.DestinationWarehouseID
		c.DestinationWarehouseID = &v
	}
	if d.SourceDocID != nil {
		v := *d.SourceDocID
		c.SourceDocID = &v
	}
	if d.ApprovedBy != nil {
		v := *d.ApprovedBy
		c.ApprovedBy = &v
	}
	if d.CompletedAt != nil {
		v := *d.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

// Line returns a pointer to the line with lineNo.
func (d *Document) Line(lineNo int) (*Line, bool) {
	for i := range d.Lines {
		if d.Lines[i].LineNo == lineNo {
			return &d.Lines[i], true
		}
	}
	return nil, false
}

// ItemIDs returns the distinct items referenced by the lines.
func (d *Document) ItemIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(d.Lines))
	out := make([]id.ID, 0, len(d.Lines))
	for _, l := range d.Lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		out = append(out, l.ItemID)
	}
	return out
}

// Validate implements entity.Validatable interface.
func (d *Document) Validate(_ context.Context) error {
	if !d.Type.Valid() {
		return apperror.NewValidation("unknown document type").WithDetail("field", "type")
	}
	if id.IsNil(d.WarehouseID) {
		return apperror.NewValidation("warehouseId is required").WithDetail("field", "warehouseId")
	}
	if d.Type == TypeStockTransfer {
		if d.DestinationWarehouseID == nil || id.IsNil(*d.DestinationWarehouseID) {
			return apperror.NewValidation("destinationWarehouseId is required for transfers").
				WithDetail("field", "destinationWarehouseId")
		}
		if *d.DestinationWarehouseID == d.WarehouseID {
			return apperror.NewValidation("source and destination warehouse must differ").
				WithDetail("field", "destinationWarehouseId")
		}
	}
	if d.TaxPercent.IsNegative() || d.DiscountPercent.IsNegative() || d.DiscountPercent.GreaterThan(types.Qty(100)) {
		return apperror.NewValidation("percentages must be between 0 and 100")
	}
	if len(d.Lines) == 0 {
		return apperror.NewValidation("document must have at least one line").WithDetail("field", "lines")
	}

	seen := make(map[int]struct{}, len(d.Lines))
	for i, l := range d.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if _, dup := seen[l.LineNo]; dup {
			return apperror.NewValidation("duplicate line number").WithDetail("field", field)
		}
		seen[l.LineNo] = struct{}{}

		if id.IsNil(l.ItemID) {
			return apperror.NewValidation("itemId is required").WithDetail("field", field+".itemId")
		}
		// Cycle count quantities mirror the ledger, which may be overdrawn.
		if d.Type != TypeCycleCount && l.Quantity.IsNegative() {
			return apperror.NewValidation("quantity cannot be negative").WithDetail("field", field+".quantity")
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unitPrice cannot be negative").WithDetail("field", field+".unitPrice")
		}
		if l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(types.Qty(100)) {
			return apperror.NewValidation("discountPercent must be between 0 and 100").
				WithDetail("field", field+".discountPercent")
		}
		if l.CountedQty != nil && l.CountedQty.IsNegative() {
			return apperror.NewValidation("countedQty cannot be negative").WithDetail("field", field+".countedQty")
		}
	}
	return nil
}

// AuditEntry records one transition or annotation of a document.
type AuditEntry struct {
	ID         id.ID     `db:"id" json:"id"`
	DocumentID id.ID     `db:"document_id" json:"documentId"`
	Action     string    `db:"action" json:"action"`
	FromStatus Status    `db:"from_status" json:"fromStatus,omitempty"`
	ToStatus   Status    `db:"to_status" json:"toStatus,omitempty"`
	Note       string    `db:"note" json:"note,omitempty"`
	Actor      string    `db:"actor" json:"actor,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	// Snapshot is the document as it was after the entry, JSON encoded.
	Snapshot []byte `db:"snapshot" json:"-"`
}

// Audit actions that are not lifecycle actions.
const (
	AuditCreate       = "create"
	AuditUpdate       = "update"
	AuditAnnotate     = "annotate"
	AuditAutoComplete = "auto_complete"
	AuditCount        = "record_count"
	AuditPick         = "record_pick"
)
