package entity

// Name is a stakeholder's legal and display name.
type Name struct {
	LegalName string `json:"legal_name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Stakeholder is a person or institution holding or eligible to hold
// securities of the issuer.
type Stakeholder struct {
	ID               string `json:"id"`
	Name             Name   `json:"name"`
	StakeholderType  string `json:"stakeholder_type"`
	IssuerAssignedID string `json:"issuer_assigned_id,omitempty"`

	// Deprecated: use CurrentRelationships.
	CurrentRelationship  string   `json:"current_relationship,omitempty"`
	CurrentRelationships []string `json:"current_relationships,omitempty"`

	Comments []string `json:"comments,omitempty"`
}

// EntityID implements Payload.
func (s Stakeholder) EntityID() string { return s.ID }

var (
	stakeholderTypes = newEnum("OcfStakeholderType", "INDIVIDUAL", "INSTITUTION")
	relationships    = newEnum("OcfRel",
		"ADVISOR", "BOARD_MEMBER", "CONSULTANT", "EMPLOYEE", "EX_ADVISOR",
		"EX_CONSULTANT", "EX_EMPLOYEE", "EXECUTIVE", "FOUNDER", "INVESTOR",
		"NON_US_EMPLOYEE", "OFFICER", "OTHER",
	)
)

var stakeholderCodec = typedCodec[Stakeholder]{
	kind: KindStakeholder,
	encode: func(e *encoder, s Stakeholder) {
		e.id(s.ID)
		e.nested("name", "name", func(n *encoder) {
			n.required("legal_name", "legalName", s.Name.LegalName)
			n.optional("firstName", s.Name.FirstName)
			n.optional("lastName", s.Name.LastName)
		})
		e.enum("stakeholder_type", "stakeholderType", s.StakeholderType, stakeholderTypes, true)
		e.optional("issuerAssignedId", s.IssuerAssignedID)
		e.enums("current_relationships", "currentRelationships", s.CurrentRelationships, relationships)
		e.strings("comments", s.Comments)
	},
	decode: func(d *decoder) Stakeholder {
		n := d.nested("name", "name")
		return Stakeholder{
			ID: d.id(),
			Name: Name{
				LegalName: n.required("legal_name", "legalName"),
				FirstName: n.optional("firstName"),
				LastName:  n.optional("lastName"),
			},
			StakeholderType:      d.enum("stakeholder_type", "stakeholderType", stakeholderTypes, true),
			IssuerAssignedID:     d.optional("issuerAssignedId"),
			CurrentRelationships: d.enums("current_relationships", "currentRelationships", relationships),
			Comments:             d.strings("comments"),
		}
	},
	normalize: func(s Stakeholder) (Stakeholder, []Deprecation) {
		rels, legacy := NormalizeSingular(s.CurrentRelationship, s.CurrentRelationships)
		s.CurrentRelationship = ""
		s.CurrentRelationships = rels
		if !legacy {
			return s, nil
		}
		return s, []Deprecation{{
			Kind:        KindStakeholder,
			EntityID:    s.ID,
			Field:       "current_relationship",
			Replacement: "current_relationships",
		}}
	},
}
