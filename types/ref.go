// Package types provides the value types shared across captable.
package types

// ContractRef is an immutable handle to one version of a ledger contract.
//
// Every mutating submission consumes the version it targets and produces a
// successor with a fresh ContractID, so a ContractRef is never updated in
// place: callers thread the ref returned by the last successful submission
// into the next one.
type ContractRef struct {
	ContractID string     `json:"contract_id" bson:"contract_id"`
	Kind       string     `json:"kind"        bson:"kind"`
	Disclosure Disclosure `json:"disclosure"  bson:"disclosure"`
}

// IsZero reports whether the ref names no contract.
func (r ContractRef) IsZero() bool { return r.ContractID == "" }

// Disclosure is the provenance proof that lets a submitter reference a
// contract it is not a stakeholder of.
type Disclosure struct {
	ResourceKind   string `json:"resource_kind"   bson:"resource_kind"`
	ResourceID     string `json:"resource_id"     bson:"resource_id"`
	ProvenanceBlob string `json:"provenance_blob" bson:"provenance_blob"`
	ShardID        string `json:"shard_id"        bson:"shard_id"`
}

// Valid reports whether the proof can be submitted. Lookups sometimes return
// placeholders with an empty blob for contracts that need no disclosure.
func (d Disclosure) Valid() bool { return d.ProvenanceBlob != "" }
