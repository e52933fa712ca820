// Package ledger defines the ledger network collaborator consumed by the
// batch compiler and the wire types exchanged with it.
//
// Implementations own transport, authentication, retries, timeouts and
// cancellation. The compiler never retries a call.
package ledger

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/types"
)

// Client is the ledger network collaborator.
//
// Instead of a single lookup returning sentinel errors, absence is reported
// through the boolean result so callers can tell "not there" apart from a
// failed call.
type Client interface {
	// Submit executes one compiled command atomically. A command targeting
	// a superseded contract fails with a *types.ConflictError. Errors are
	// returned to the caller as-is.
	Submit(ctx context.Context, cmd *Command) (*ExecutionResult, error)

	// LookupByID returns the creation event of contractID.
	LookupByID(ctx context.Context, contractID string) (*Event, bool, error)

	// ListValueResources lists the unspent value resources owned by principal.
	ListValueResources(ctx context.Context, principal string) ([]types.ValueResource, error)

	// LookupContextResource resolves a required context resource by key.
	LookupContextResource(ctx context.Context, key string) (*types.Resource, bool, error)

	// LookupOptionalResource resolves a best-effort context resource by key.
	LookupOptionalResource(ctx context.Context, key string) (*types.Resource, bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// Command is one compiled state-transition request: a single choice
// exercised on the targeted contract version.
type Command struct {
	CommandID   string             `json:"command_id"`
	ActAs       []string           `json:"act_as"`
	Target      types.ContractRef  `json:"target"`
	Choice      string             `json:"choice"`
	Argument    bson.D             `json:"argument"`
	Disclosures []types.Disclosure `json:"disclosures"`
}

// EventType distinguishes contract creation from consumption.
type EventType string

const (
	EventCreated  EventType = "created"
	EventArchived EventType = "archived"
)

// Event is one contract lifecycle event of a transaction.
//
// Kind is the ledger-native template tag. EntityID is set on events of
// business-entity contracts and carries the caller's natural key.
type Event struct {
	Type           EventType `json:"type"`
	ContractID     string    `json:"contract_id"`
	Kind           string    `json:"kind"`
	EntityID       string    `json:"entity_id,omitempty"`
	Arguments      bson.D    `json:"arguments,omitempty"`
	ProvenanceBlob string    `json:"provenance_blob,omitempty"`
	ShardID        string    `json:"shard_id,omitempty"`
}

// Disclosure returns the provenance proof embedded in the event. It is
// invalid when the ledger did not embed one.
func (e Event) Disclosure() types.Disclosure {
	return types.Disclosure{
		ResourceKind:   e.Kind,
		ResourceID:     e.ContractID,
		ProvenanceBlob: e.ProvenanceBlob,
		ShardID:        e.ShardID,
	}
}

// ExecutionResult is the ledger's record of one accepted command.
type ExecutionResult struct {
	TransactionID string  `json:"transaction_id"`
	CommandID     string  `json:"command_id"`
	Events        []Event `json:"events"`
}

// Created returns the creation events in ledger order.
func (r *ExecutionResult) Created() []Event {
	out := make([]Event, 0, len(r.Events))
	for _, e := range r.Events {
		if e.Type == EventCreated {
			out = append(out, e)
		}
	}
	return out
}
