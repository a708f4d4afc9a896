package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.HistoryRepository = (*HistoryRepo)(nil)

// HistoryRepo bitácora de catálogo; los snapshots se guardan como JSONB.
type HistoryRepo struct {
	q Querier
}

func NewHistoryRepository(q Querier) *HistoryRepo {
	return &HistoryRepo{q: q}
}

func (r *HistoryRepo) Append(ctx context.Context, e *entity.HistoryEntry) error {
	before, err := encodeSnapshot(e.Before)
	if err != nil {
		return err
	}
	after, err := encodeSnapshot(e.After)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO entity_history (id, company_id, entity_kind, entity_id, action, before, after, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.CompanyID, string(e.EntityKind), e.EntityID, e.Action, before, after, e.ChangedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List cambios de la entidad, el más reciente primero.
func (r *HistoryRepo) List(ctx context.Context, companyID string, kind entity.EntityKind, entityID string) ([]*entity.HistoryEntry, error) {
	if !isUUID(entityID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, entity_kind, entity_id, action, before, after, changed_by, created_at
		FROM entity_history
		WHERE company_id = $1 AND entity_kind = $2 AND entity_id = $3
		ORDER BY created_at DESC, id`, companyID, string(kind), entityID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()
	var list []*entity.HistoryEntry
	for rows.Next() {
		var e entity.HistoryEntry
		var k string
		var before, after []byte
		if err := rows.Scan(&e.ID, &e.CompanyID, &k, &e.EntityID, &e.Action, &before, &after, &e.ChangedBy, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.EntityKind = entity.EntityKind(k)
		if e.Before, err = decodeSnapshot(e.EntityKind, before); err != nil {
			return nil, err
		}
		if e.After, err = decodeSnapshot(e.EntityKind, after); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

func encodeSnapshot(s entity.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", s.Kind(), err)
	}
	return b, nil
}

// decodeSnapshot elige el tipo concreto por kind; nunca adivina por los campos.
func decodeSnapshot(kind entity.EntityKind, raw []byte) (entity.Snapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	switch kind {
	case entity.KindWarehouse:
		var s entity.WarehouseSnapshot
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode warehouse snapshot: %w", err)
		}
		return s, nil
	case entity.KindItem:
		var s entity.ItemSnapshot
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode item snapshot: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("snapshot de tipo desconocido: %q", kind)
}
