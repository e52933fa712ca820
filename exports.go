package captable

import (
	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/entity"
	"github.com/xraph/captable/types"
)

// Re-export common types so users don't have to import subpackages.

// ContractRef is re-exported from types package.
type ContractRef = types.ContractRef

// Disclosure is re-exported from types package.
type Disclosure = types.Disclosure

// ValueResource is re-exported from types package.
type ValueResource = types.ValueResource

// Operation is re-exported from batch package.
type Operation = batch.Operation

// Result is re-exported from batch package.
type Result = batch.Result

// Kind is re-exported from entity package.
type Kind = entity.Kind

// Re-export operation constructors
var (
	Create = batch.Create
	Edit   = batch.Edit
	Delete = batch.Delete
)
