package batch

import (
	"reflect"

	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/types"
)

// Operation is one accumulated entity mutation. Payload is nil for deletes.
type Operation struct {
	Action  ledger.Action
	Kind    entity.Kind
	ID      string
	Payload entity.Payload
}

// Create returns a create operation.
func Create(kind entity.Kind, payload entity.Payload) Operation {
	return Operation{Action: ledger.ActionCreate, Kind: kind, ID: entityID(payload), Payload: payload}
}

// Edit returns an edit operation.
func Edit(kind entity.Kind, payload entity.Payload) Operation {
	return Operation{Action: ledger.ActionEdit, Kind: kind, ID: entityID(payload), Payload: payload}
}

// Delete returns a delete operation.
func Delete(kind entity.Kind, id string) Operation {
	return Operation{Action: ledger.ActionDelete, Kind: kind, ID: id}
}

func entityID(p entity.Payload) string {
	if isNilPayload(p) {
		return ""
	}
	return p.EntityID()
}

// isNilPayload reports whether p is nil or a nil pointer held in the interface.
func isNilPayload(p entity.Payload) bool {
	if p == nil {
		return true
	}
	v := reflect.ValueOf(p)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// validate checks what can be checked without encoding: a known kind, a
// payload where one is needed and a non-empty natural key.
func (op Operation) validate(registry *entity.Registry) error {
	switch op.Action {
	case ledger.ActionCreate, ledger.ActionEdit, ledger.ActionDelete:
	default:
		return types.NewValidationError(string(op.Kind), "action", "unknown action "+string(op.Action))
	}
	if !registry.Has(op.Kind) {
		return types.NewValidationError(string(op.Kind), "kind", "unknown entity kind")
	}
	if op.Action != ledger.ActionDelete && isNilPayload(op.Payload) {
		return types.NewValidationError(string(op.Kind), string(op.Kind)+".payload", "is required")
	}
	if op.ID == "" {
		return types.NewValidationError(string(op.Kind), string(op.Kind)+".id", "is required")
	}
	if !isNilPayload(op.Payload) && op.Payload.EntityID() != op.ID {
		return types.NewValidationError(string(op.Kind), string(op.Kind)+".id", "does not match the payload id")
	}
	return nil
}
