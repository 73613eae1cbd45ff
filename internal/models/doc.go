// Package models defines the ledger's domain records.
//
// # Entities
//
//   - Balance: a named account whose Amount is derived from its transactions
//   - Category: an owner-scoped label grouping transactions
//   - Transaction: a sum type with two variants, IncomeOutcome and Transfer
//
// Every entity carries an OwnerID. Owners are opaque IDs resolved by the
// access layer; the ledger never stores users itself.
//
// # Design Principles
//
// 1. **Derived amounts**: Balance.Amount is only ever written by the aggregator
// 2. **Disjoint variants**: a transfer can never carry an income type and vice versa
// 3. **ID references**: relationships are ID strings, not pointers
// 4. **Exact money**: amounts are decimals with two fraction digits
package models
