package shell

import (
	"context"
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-loan-ledger/core"
)

// ErrMappingAuditMetadataFailed is returned when audit metadata conversion fails.
var ErrMappingAuditMetadataFailed = errors.New("mapping audit metadata failed")

// CausationID represents the ID of the command that caused an audited change.
type CausationID = string

// CorrelationID represents the ID correlating related commands, e.g. one checkout desk session.
type CorrelationID = string

// AuditMetadata is stored next to each audit entry.
type AuditMetadata struct {
	CommandType   string        `json:"command_type"`
	CausationID   CausationID   `json:"causation_id"`
	CorrelationID CorrelationID `json:"correlation_id"`
}

// BuildAuditMetadata creates AuditMetadata from UUID values.
func BuildAuditMetadata(commandType string, causationID uuid.UUID, correlationID uuid.UUID) AuditMetadata {
	return AuditMetadata{
		CommandType:   commandType,
		CausationID:   causationID.String(),
		CorrelationID: correlationID.String(),
	}
}

// AuditRecord is an audit entry as stored, with the metadata of the command that caused it.
type AuditRecord struct {
	Entry    core.AuditEntry
	Metadata AuditMetadata
}

type auditMetadataKey struct{}

// ContextWithAuditMetadata returns a context carrying the metadata to the audit sink.
func ContextWithAuditMetadata(ctx context.Context, metadata AuditMetadata) context.Context {
	return context.WithValue(ctx, auditMetadataKey{}, metadata)
}

// AuditMetadataFromContext returns the metadata carried by ctx, if any.
func AuditMetadataFromContext(ctx context.Context) (AuditMetadata, bool) {
	metadata, ok := ctx.Value(auditMetadataKey{}).(AuditMetadata)

	return metadata, ok
}

// ContextWithCommandMetadata marks ctx as handling one command of the given type.
// A correlation ID already present in ctx is kept, so commands of one desk session stay correlated.
func ContextWithCommandMetadata(ctx context.Context, commandType string) context.Context {
	causationID := uuid.New()
	metadata := BuildAuditMetadata(commandType, causationID, causationID)

	if outer, ok := AuditMetadataFromContext(ctx); ok && outer.CorrelationID != "" {
		metadata.CorrelationID = outer.CorrelationID
	}

	return ContextWithAuditMetadata(ctx, metadata)
}

// AuditMetadataJSON marshals the metadata carried by ctx. Without metadata it returns an empty JSON object.
func AuditMetadataJSON(ctx context.Context) ([]byte, error) {
	metadata, ok := AuditMetadataFromContext(ctx)
	if !ok {
		return []byte("{}"), nil
	}

	metadataJSON, err := jsoniter.ConfigFastest.Marshal(metadata)
	if err != nil {
		return nil, errors.Join(ErrMappingAuditMetadataFailed, err)
	}

	return metadataJSON, nil
}

// AuditMetadataFrom unmarshals stored audit metadata.
func AuditMetadataFrom(metadataJSON []byte) (AuditMetadata, error) {
	metadata := new(AuditMetadata)

	if err := jsoniter.ConfigFastest.Unmarshal(metadataJSON, metadata); err != nil {
		return AuditMetadata{}, errors.Join(ErrMappingAuditMetadataFailed, err)
	}

	return *metadata, nil
}
