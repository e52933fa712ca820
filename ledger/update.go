package ledger

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Action is the mutation applied to one business entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

var actionPrefixes = map[Action]string{
	ActionCreate: "OcfCreate",
	ActionEdit:   "OcfEdit",
	ActionDelete: "OcfDelete",
}

// Mutation is one entity operation inside an update. Tag is the entity's
// ledger-native template tag; Args is empty for deletes.
type Mutation struct {
	Action   Action
	Tag      string
	EntityID string
	Args     bson.D
}

// Update is the argument of the aggregate's update choice.
type Update struct {
	Mutations []Mutation
	Payment   *Payment
}

// Native encodes u grouped as creates, edits and deletes, each group in
// accumulation order. Every group is present even when empty.
func (u Update) Native() bson.D {
	groups := map[Action]bson.A{
		ActionCreate: {},
		ActionEdit:   {},
		ActionDelete: {},
	}
	for _, m := range u.Mutations {
		var value any = m.Args
		if m.Action == ActionDelete {
			value = m.EntityID
		}
		groups[m.Action] = append(groups[m.Action], bson.D{
			{Key: "tag", Value: actionPrefixes[m.Action] + m.Tag},
			{Key: "value", Value: value},
		})
	}

	doc := bson.D{
		{Key: "creates", Value: groups[ActionCreate]},
		{Key: "edits", Value: groups[ActionEdit]},
		{Key: "deletes", Value: groups[ActionDelete]},
	}
	if u.Payment != nil {
		doc = append(doc, bson.E{Key: "payment", Value: u.Payment.Native()})
	}
	return doc
}

// ParseUpdate decodes an update argument. Mutations come back grouped:
// creates, then edits, then deletes.
func ParseUpdate(arg bson.D) (Update, error) {
	var u Update
	fields := docMap(arg)

	for _, action := range []Action{ActionCreate, ActionEdit, ActionDelete} {
		key := string(action) + "s"
		items, ok := fields[key].(bson.A)
		if !ok {
			return Update{}, fmt.Errorf("%w: update argument has no %q list", ErrMalformed, key)
		}
		for i, item := range items {
			m, err := parseMutation(action, item)
			if err != nil {
				return Update{}, fmt.Errorf("%w: %s[%d]: %v", ErrMalformed, key, i, err)
			}
			u.Mutations = append(u.Mutations, m)
		}
	}

	if raw, ok := fields["payment"].(bson.D); ok {
		p, err := parsePayment(raw)
		if err != nil {
			return Update{}, err
		}
		u.Payment = &p
	}
	return u, nil
}

func parseMutation(action Action, item any) (Mutation, error) {
	op, ok := item.(bson.D)
	if !ok {
		return Mutation{}, fmt.Errorf("operation is %T, not a document", item)
	}
	fields := docMap(op)

	tag, _ := fields["tag"].(string)
	prefix := actionPrefixes[action]
	if !strings.HasPrefix(tag, prefix) || len(tag) == len(prefix) {
		return Mutation{}, fmt.Errorf("tag %q does not start with %q", tag, prefix)
	}
	m := Mutation{Action: action, Tag: strings.TrimPrefix(tag, prefix)}

	if action == ActionDelete {
		m.EntityID, _ = fields["value"].(string)
	} else {
		m.Args, _ = fields["value"].(bson.D)
		m.EntityID, _ = docMap(m.Args)["id"].(string)
	}
	if m.EntityID == "" {
		return Mutation{}, fmt.Errorf("%s has no entity id", tag)
	}
	return m, nil
}

// Payment is the ledger-native payment argument. Funding fields are empty
// for payments against previously locked funds.
type Payment struct {
	Provider     string
	PricingRules string
	PricingRound string
	FeeShare     string
	Payer        string
	Amount       string
	Inputs       []string
}

// Native encodes p.
func (p Payment) Native() bson.D {
	doc := bson.D{
		{Key: "provider", Value: p.Provider},
		{Key: "pricingRules", Value: p.PricingRules},
		{Key: "pricingRound", Value: p.PricingRound},
	}
	if p.FeeShare != "" {
		doc = append(doc, bson.E{Key: "feeShare", Value: p.FeeShare})
	}
	if p.Payer != "" {
		inputs := make(bson.A, 0, len(p.Inputs))
		for _, in := range p.Inputs {
			inputs = append(inputs, in)
		}
		doc = append(doc,
			bson.E{Key: "payer", Value: p.Payer},
			bson.E{Key: "amount", Value: p.Amount},
			bson.E{Key: "inputs", Value: inputs},
		)
	}
	return doc
}

func parsePayment(doc bson.D) (Payment, error) {
	fields := docMap(doc)
	str := func(k string) string {
		s, _ := fields[k].(string)
		return s
	}

	p := Payment{
		Provider:     str("provider"),
		PricingRules: str("pricingRules"),
		PricingRound: str("pricingRound"),
		FeeShare:     str("feeShare"),
		Payer:        str("payer"),
		Amount:       str("amount"),
	}
	if p.Provider == "" || p.PricingRules == "" || p.PricingRound == "" {
		return Payment{}, fmt.Errorf("%w: payment is missing its pricing context", ErrMalformed)
	}
	if inputs, ok := fields["inputs"].(bson.A); ok {
		for _, in := range inputs {
			if s, ok := in.(string); ok {
				p.Inputs = append(p.Inputs, s)
			}
		}
	}
	if p.Payer != "" && p.Amount == "" {
		return Payment{}, fmt.Errorf("%w: funded payment has no amount", ErrMalformed)
	}
	return p, nil
}

func docMap(d bson.D) map[string]any {
	m := make(map[string]any, len(d))
	for _, e := range d {
		m[e.Key] = e.Value
	}
	return m
}
