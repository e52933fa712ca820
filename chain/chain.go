// Package chain follows the aggregate contract from one version to the
// next by reading ledger execution results.
package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/types"
)

// Tracker extracts successor versions from execution results.
type Tracker struct {
	client ledger.Client
	logger *slog.Logger
}

// NewTracker returns a tracker that falls back to client for proofs the
// execution result does not embed.
func NewTracker(client ledger.Client, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{client: client, logger: logger}
}

// Successor finds the creation event of kind in result. A missing event
// means the result does not have the expected shape and is never retried.
func Successor(result *ledger.ExecutionResult, kind string) (ledger.Event, error) {
	if result == nil {
		return ledger.Event{}, &types.ProtocolError{Op: "chain", Message: "empty execution result"}
	}
	for _, e := range result.Events {
		if e.Type == ledger.EventCreated && e.Kind == kind {
			return e, nil
		}
	}
	return ledger.Event{}, &types.NotFoundError{Resource: kind + " creation event", ID: result.TransactionID}
}

// Track returns the handle of the aggregate version created by result,
// including its disclosure proof. When the result does not embed a usable
// proof, Track performs one point lookup for it.
func (t *Tracker) Track(ctx context.Context, result *ledger.ExecutionResult, kind string) (types.ContractRef, error) {
	ev, err := Successor(result, kind)
	if err != nil {
		return types.ContractRef{}, err
	}

	proof, err := t.Disclosure(ctx, ev)
	if err != nil {
		return types.ContractRef{}, err
	}
	return types.ContractRef{ContractID: ev.ContractID, Kind: ev.Kind, Disclosure: proof}, nil
}

// Disclosure returns the proof of a freshly created contract, fetching it
// by id when ev carries none.
func (t *Tracker) Disclosure(ctx context.Context, ev ledger.Event) (types.Disclosure, error) {
	if proof := ev.Disclosure(); proof.Valid() {
		return proof, nil
	}

	t.logger.Debug("proof not embedded, looking up contract", "contract_id", ev.ContractID, "kind", ev.Kind)
	found, ok, err := t.client.LookupByID(ctx, ev.ContractID)
	if err != nil {
		return types.Disclosure{}, fmt.Errorf("captable/chain: lookup %q: %w", ev.ContractID, err)
	}
	if !ok || found == nil || found.Type != ledger.EventCreated {
		return types.Disclosure{}, &types.NotFoundError{Resource: "creation event", ID: ev.ContractID}
	}
	proof := found.Disclosure()
	if !proof.Valid() {
		return types.Disclosure{}, &types.ProtocolError{
			Op:      "chain",
			Message: fmt.Sprintf("contract %q has no usable disclosure", ev.ContractID),
		}
	}
	return proof, nil
}

// EntityIDs maps each (kind, natural key) to the contract created for it in
// result, consuming events in order so that repeated keys resolve to
// successive events.
type EntityIDs struct {
	pending map[string][]string
}

// IndexEntities indexes the business-entity creation events of result.
func IndexEntities(result *ledger.ExecutionResult) *EntityIDs {
	idx := &EntityIDs{pending: make(map[string][]string)}
	if result == nil {
		return idx
	}
	for _, e := range result.Created() {
		if e.EntityID == "" {
			continue
		}
		key := e.Kind + "/" + e.EntityID
		idx.pending[key] = append(idx.pending[key], e.ContractID)
	}
	return idx
}

// Take returns the next contract id created for kind and entityID.
func (x *EntityIDs) Take(kind, entityID string) (string, error) {
	key := kind + "/" + entityID
	ids := x.pending[key]
	if len(ids) == 0 {
		return "", &types.ProtocolError{
			Op:      "chain",
			Message: fmt.Sprintf("no creation event for %s %q", kind, entityID),
		}
	}
	x.pending[key] = ids[1:]
	return ids[0], nil
}
