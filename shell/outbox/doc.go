// Package outbox holds back notifications and audit entries until the change that caused them is saved.
//
// A Relay is handed to the ledger and the fine calculator as their sinks. Inside a context prepared
// with Begin, every delivery is buffered instead of sent. The command handler flushes the buffer after
// the store accepted the change and simply drops it when the attempt failed or will be retried,
// so a retried command never notifies or audits twice. Outside such a context the Relay delivers directly.
package outbox
