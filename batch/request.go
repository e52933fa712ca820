package batch

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/types"
)

// Request is a compiled batch: one command against one aggregate version.
type Request struct {
	BatchID    string
	Command    ledger.Command
	Operations []Operation
}

// canonical returns the bytes identifying the request content. The command
// id is excluded so resubmissions of the same content share a digest.
func (r *Request) canonical() ([]byte, error) {
	proofs := make(bson.A, 0, len(r.Command.Disclosures))
	for _, d := range r.Command.Disclosures {
		proofs = append(proofs, bson.D{
			{Key: "kind", Value: d.ResourceKind},
			{Key: "id", Value: d.ResourceID},
			{Key: "blob", Value: d.ProvenanceBlob},
			{Key: "shard", Value: d.ShardID},
		})
	}
	actAs := make(bson.A, 0, len(r.Command.ActAs))
	for _, p := range r.Command.ActAs {
		actAs = append(actAs, p)
	}
	return bson.Marshal(bson.D{
		{Key: "target", Value: r.Command.Target.ContractID},
		{Key: "choice", Value: r.Command.Choice},
		{Key: "actAs", Value: actAs},
		{Key: "argument", Value: r.Command.Argument},
		{Key: "disclosures", Value: proofs},
	})
}

// Digest returns the CIDv1 (raw, sha2-256) of the request content.
func (r *Request) Digest() (string, error) {
	data, err := r.canonical()
	if err != nil {
		return "", fmt.Errorf("captable/batch: encode request: %w", err)
	}
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("captable/batch: hash request: %w", err)
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}

// Result reports an accepted batch. CreatedIDs and EditedIDs hold the
// ledger contract ids of the new entity versions, in accumulation order.
type Result struct {
	CreatedIDs         []string
	EditedIDs          []string
	UpdatedAggregateID string

	// Aggregate is the handle to pass to the next batch.
	Aggregate types.ContractRef

	CommandID     string
	TransactionID string
	Digest        string
}
