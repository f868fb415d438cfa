// Package models defines the core domain models for the Toodl split backend.
//
// # Models
//
//   - Group: a set of members sharing expenses in one currency
//   - Member: identity within a group (may exist without a user account)
//   - Expense: a shared cost with a percentage split map
//   - Settlement: a recorded payment between two members, pending until
//     the payee confirms it
//   - User: a registered account used for authentication
//
// # Design principles
//
//  1. Member IDs are the canonical key everywhere. Splits and settlements
//     reference members by ID, never by display name. Historical data that
//     keyed payers by first name is resolved at the ledger boundary.
//  2. Money is carried in two forms: a major-unit float for display
//     round-tripping with clients, and an authoritative minor-unit integer
//     used by every computation.
//  3. No pointers between models; relationships are ID strings.
package models
