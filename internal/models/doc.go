// Package models defines the core domain records for Equinex.
//
// # Records
//
//   - User: registered account, referenced by ID everywhere and never embedded
//   - Group: named set of Memberships with exactly one admin
//   - Expense: a shared cost with per-user Splits (equal, percentage or exact)
//   - Settlement: a recorded real-world payment that reduces an outstanding debt
//   - ActivityEntry: append-only audit record for group membership changes
//
// # Design Principles
//
//  1. **IDs, not pointers**: relationships are expressed as ID strings to
//     avoid circular references and keep records serializable.
//  2. **Records are dumb**: all balance math lives in the ledger package;
//     models only carry small membership/split lookups.
//  3. **Timestamps are Unix milliseconds**, matching the event dates the
//     presentation layer renders.
package models
