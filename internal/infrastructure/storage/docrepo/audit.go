package docrepo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"memorial/internal/core/apperror"
	"memorial/internal/core/docstore"
	"memorial/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for changes.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the changes size above which entries are compressed.
const DefaultCompressThreshold = 2 * 1024

// auditDocument is the stored shape of an audit entry. Large change sets
// are kept zstd-compressed and base64-encoded in ChangesCompressed.
type auditDocument struct {
	EntityType        string          `json:"entityType"`
	EntityID          string          `json:"entityId"`
	Action            audit.Action    `json:"action"`
	AgentID           string          `json:"agentId,omitempty"`
	AgentName         string          `json:"agentName,omitempty"`
	Changes           json.RawMessage `json:"changes,omitempty"`
	ChangesCompressed string          `json:"changesCompressed,omitempty"`
	CompressionAlgo   CompressionAlgo `json:"compressionAlgo"`
	At                time.Time       `json:"at"`
}

// AuditRepo stores audit entries.
type AuditRepo struct {
	store             docstore.Store
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// Ensure compile-time interface compliance.
var _ audit.Repository = (*AuditRepo)(nil)

// NewAuditRepo creates an audit repository. threshold <= 0 uses the default.
func NewAuditRepo(store docstore.Store, threshold int) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	return &AuditRepo{
		store:             store,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: threshold,
	}, nil
}

// Append implements audit.Repository.
func (r *AuditRepo) Append(ctx context.Context, entry *audit.Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	d := auditDocument{
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          entry.Action,
		AgentID:         entry.AgentID,
		AgentName:       entry.AgentName,
		CompressionAlgo: CompressionNone,
		At:              entry.At,
	}

	// Compress large changes
	if len(changes) > r.compressThreshold {
		d.ChangesCompressed = base64.StdEncoding.EncodeToString(r.encoder.EncodeAll(changes, nil))
		d.CompressionAlgo = CompressionZstd
	} else {
		d.Changes = changes
	}

	doc, err := docstore.Encode(d)
	if err != nil {
		return apperror.NewInternal(err)
	}
	newID, err := r.store.Create(ctx, CollectionAudit, doc)
	if err != nil {
		return apperror.NewStore("create audit", err)
	}
	entry.ID = newID
	return nil
}

// ListByEntity implements audit.Repository.
func (r *AuditRepo) ListByEntity(ctx context.Context, entityID string) ([]*audit.Entry, error) {
	docs, err := r.store.Query(ctx, CollectionAudit, docstore.Filter{"entityId": entityID})
	if err != nil {
		return nil, apperror.NewStore("query audit", err)
	}

	entries := make([]*audit.Entry, 0, len(docs))
	for _, doc := range docs {
		var d auditDocument
		if err := docstore.Decode(doc, &d); err != nil {
			return nil, apperror.NewInternal(err)
		}

		changes := []byte(d.Changes)
		// Decompress if needed
		if d.CompressionAlgo == CompressionZstd {
			raw, err := base64.StdEncoding.DecodeString(d.ChangesCompressed)
			if err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("decode changes: %w", err))
			}
			changes, err = r.decoder.DecodeAll(raw, nil)
			if err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("decompress changes: %w", err))
			}
		}

		e := &audit.Entry{
			EntityType: d.EntityType,
			EntityID:   d.EntityID,
			Action:     d.Action,
			AgentID:    d.AgentID,
			AgentName:  d.AgentName,
			At:         d.At,
		}
		e.ID, _ = doc[docstore.KeyID].(string)
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, apperror.NewInternal(fmt.Errorf("unmarshal changes: %w", err))
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
