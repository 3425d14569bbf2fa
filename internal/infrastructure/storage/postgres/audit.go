package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"backoffice/internal/core/id"
	"backoffice/internal/domain/audit"
)

const auditTable = "sys_audit"

// CompressionAlgo specifies how event details are stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the detail size above which zstd is used.
const DefaultCompressThreshold = 4 * 1024

// AuditSink stores lifecycle events in sys_audit inside the caller's transaction.
type AuditSink struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var (
	_ audit.Sink   = (*AuditSink)(nil)
	_ audit.Reader = (*AuditSink)(nil)
)

// NewAuditSink creates an audit sink. A threshold <= 0 uses DefaultCompressThreshold.
func NewAuditSink(txManager *TxManager, compressThreshold int) (*AuditSink, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if compressThreshold <= 0 {
		compressThreshold = DefaultCompressThreshold
	}
	return &AuditSink{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: compressThreshold,
	}, nil
}

// Record implements audit.Sink.
func (s *AuditSink) Record(ctx context.Context, event audit.Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	var compressed []byte
	algo := CompressionNone
	if len(details) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(details, nil)
		details = nil
		algo = CompressionZstd
	}

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, event_type, entity_type, entity_id, number, actor_id,
			details, details_compressed, compression_algo, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		id.New(), event.EventType, event.EntityType, event.EntityID, event.Number, event.ActorID,
		details, compressed, algo, event.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", auditTable, err)
	}
	return nil
}

// History implements audit.Reader.
func (s *AuditSink) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT event_type, entity_type, entity_id, number, actor_id,
		       details, details_compressed, compression_algo, occurred_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY occurred_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e          audit.Event
			details    []byte
			compressed []byte
			algo       CompressionAlgo
		)
		if err := rows.Scan(
			&e.EventType, &e.EntityType, &e.EntityID, &e.Number, &e.ActorID,
			&details, &compressed, &algo, &e.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		if algo == CompressionZstd && len(compressed) > 0 {
			details, err = s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress details: %w", err)
			}
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}

// Purge deletes events older than the cutoff. Run by the worker for retention.
func (s *AuditSink) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_audit WHERE occurred_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", auditTable, err)
	}
	return tag.RowsAffected(), nil
}
