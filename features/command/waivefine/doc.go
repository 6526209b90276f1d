// Package waivefine implements the Waive Fine use case: a PENDING fine becomes WAIVED by the acting staff member.
package waivefine
