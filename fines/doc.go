// Package fines computes and settles the penalties for late returns.
//
// IsOverdue, OverdueDays and Amount are pure functions over calendar dates.
// A Calculator applies the fine rate and performs the PENDING -> PAID and PENDING -> WAIVED
// transitions, each serialized per fine and followed by a PAYMENT audit entry.
package fines
