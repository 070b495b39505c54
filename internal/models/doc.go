// Package models defines the core domain models for Splitledger.
//
// # Models
//
//   - User: a registered identity (credentials, names)
//   - Profile: one per User; department, wallet balance and outgoing friend edges
//   - Expense: a monetary outlay owned by one Profile and shared by participant Profiles
//   - ExpenseShare: an explicit amount one payee Profile owes on an Expense
//
// # Design Principles
//
// 1. **Ids, not pointers**: relationships are expressed as ID strings (UUID format)
// 2. **Fixed-point money**: every amount is a decimal.Decimal with two fractional digits
// 3. **Directed friendship**: a friend edge A->B says nothing about B->A
// 4. **Owner is pinned**: an Expense's OwnerID is set at creation and never changes
package models
