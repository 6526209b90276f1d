// Package payfine implements the Pay Fine use case.
//
// A PENDING fine becomes PAID with the given method and reference. Paying a fine that is already
// paid or waived fails with core.ErrAlreadySettled.
package payfine
