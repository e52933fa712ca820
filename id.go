package captable

import "github.com/xraph/captable/id"

// ID is the identifier type for commands, contracts, transactions and batches.
type ID = id.ID

// Prefix identifies the kind of thing encoded in a TypeID.
type Prefix = id.Prefix
