package documents

import (
	"stockerp/internal/core/apperror"
	"stockerp/internal/domain/access"
)

type edges map[Status]map[Action]Status

// transitions lists every allowed edge. A status with no entry is terminal.
var transitions = map[DocType]edges{
	TypePurchaseOrder: {
		StatusDraft:    {ActionSubmit: StatusPending, ActionCancel: StatusCancelled},
		StatusPending:  {ActionApprove: StatusApproved, ActionReject: StatusRejected, ActionCancel: StatusCancelled},
		StatusApproved: {ActionCancel: StatusCancelled},
	},
	TypePurchaseRequest: {
		StatusDraft:   {ActionSubmit: StatusPending, ActionCancel: StatusCancelled},
		StatusPending: {ActionApprove: StatusApproved, ActionReject: StatusRejected, ActionCancel: StatusCancelled},
	},
	TypeGoodsReceipt: {
		StatusDraft: {ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
	},
	TypeGoodsIssue: {
		StatusDraft: {ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
	},
	TypeStockTransfer: {
		StatusDraft: {ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
	},
	TypeSalesOrder: {
		StatusDraft:    {ActionApprove: StatusApproved, ActionReject: StatusRejected, ActionCancel: StatusCancelled},
		StatusApproved: {ActionCancel: StatusCancelled},
	},
	TypeDelivery: {
		StatusDraft: {ActionPost: StatusPosted, ActionCancel: StatusCancelled},
	},
	TypeCycleCount: {
		StatusDraft:      {ActionStart: StatusInProgress, ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
		StatusInProgress: {ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
	},
	TypePickList: {
		StatusPending:    {ActionStart: StatusInProgress, ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
		StatusInProgress: {ActionComplete: StatusCompleted, ActionCancel: StatusCancelled},
	},
}

// Next returns the status reached by applying action to a document of type t in status from.
func Next(t DocType, from Status, action Action) (Status, error) {
	if to, ok := transitions[t][from][action]; ok {
		return to, nil
	}
	return "", apperror.NewInvalidStateTransition(string(t), string(from), string(action))
}

// IsTerminal reports whether status has no outgoing edges for t.
func IsTerminal(t DocType, status Status) bool {
	return len(transitions[t][status]) == 0
}

// AllowedActions returns the actions available from status.
func AllowedActions(t DocType, status Status) []Action {
	out := make([]Action, 0, 3)
	for _, a := range []Action{ActionSubmit, ActionApprove, ActionReject, ActionStart, ActionComplete, ActionPost, ActionCancel} {
		if _, ok := transitions[t][status][a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// PermissionVerb maps a lifecycle action to the permission action it requires.
func PermissionVerb(a Action) access.Action {
	switch a {
	case ActionApprove, ActionReject, ActionComplete, ActionPost:
		return access.ActionApprove
	default:
		return access.ActionUpdate
	}
}
