// Package captable compiles cap table mutations into atomic batches against
// a versioned ledger aggregate.
//
// The capitalization record lives on the ledger as one aggregate resource.
// Every accepted batch consumes the current version and produces a
// successor with a fresh identity, so each batch targets exactly one
// version and either lands completely or not at all. It provides:
//
//   - A conversion registry from typed entity payloads (stakeholders, stock
//     classes, issuances, transfers and more) to ledger-native arguments
//   - A batch builder that validates eagerly and submits one command
//   - Disclosure assembly for every resource the command reads
//   - Payment contexts with greedy selection of value resources
//   - Successor tracking so the next batch can target the new version
//   - Lifecycle plugins for audit trails and metrics
//
// # Quick Start
//
// Create a client around a ledger implementation:
//
//	import (
//	    "github.com/xraph/captable"
//	    "github.com/xraph/captable/ledger/memory"
//	)
//
//	l := memory.New()
//	client := captable.New(l)
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop()
//
// # Batches
//
// A batch accumulates operations against one aggregate version:
//
//	b := client.NewBatch(ref)
//	if err := b.Create(entity.KindStakeholder, holder); err != nil {
//	    return err // rejected before reaching the ledger
//	}
//	res, err := b.Execute(ctx)
//	if captable.IsConflict(err) {
//	    // ref was superseded: re-fetch the current version and rebuild
//	}
//	next := res.Aggregate // target of the next batch
//
// Builders are single-use and not safe for concurrent use. Two batches
// built against the same version race at the ledger; exactly one wins and
// the other fails with a ConflictError and no side effects.
//
// # Payments
//
// Operations that charge a fee attach a payment context:
//
//	pay, err := client.NewFundedPaymentContext(ctx, payer, amount, provider)
//	if err != nil {
//	    return err
//	}
//	b.AttachPayment(pay)
//
// Selection is greedy, largest first, and happens client-side. Concurrent
// payers may select the same inputs; the ledger rejects the loser.
//
// # TypeID
//
// Commands, contracts and transactions use TypeID identifiers:
//
//	cmd_01h2xcejqtf2nbrexx3vqjhp41  // Command ID
//	ctr_01h2xcejqtf2nbrexx3vqjhp41  // Contract ID
//	txn_01h455vb4pex5vsknk084sn02q  // Transaction ID
package captable
