package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.NotificationRepository = (*NotificationRepo)(nil)
	_ repository.HistoryRepository      = (*HistoryRepo)(nil)
)

// NotificationRepo notificaciones en memoria, con la misma unicidad que la tabla.
type NotificationRepo struct {
	s *Store
}

func (r *NotificationRepo) CreateBatch(_ context.Context, list []*entity.Notification) ([]*entity.Notification, error) {
	var created []*entity.Notification
	err := r.s.with(false, func(st *state) error {
		if err := r.s.fault("notifications.create"); err != nil {
			return err
		}
		for _, n := range list {
			if hasNotification(st.notifications, n) {
				continue
			}
			st.notifications = append(st.notifications, *n)
			created = append(created, n)
		}
		return nil
	})
	return created, err
}

func hasNotification(list []entity.Notification, n *entity.Notification) bool {
	for _, o := range list {
		if o.UserID == n.UserID && o.Type == n.Type && o.RelatedID == n.RelatedID {
			return true
		}
	}
	return false
}

func (r *NotificationRepo) ListByUser(_ context.Context, companyID, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	var out []*entity.Notification
	err := r.s.with(false, func(st *state) error {
		var all []entity.Notification
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if n.CompanyID != companyID || n.UserID != userID {
				continue
			}
			if unreadOnly && n.ReadAt != nil {
				continue
			}
			all = append(all, n)
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
		for _, n := range page(all, limit, offset) {
			n := n
			out = append(out, &n)
		}
		return nil
	})
	return out, err
}

func (r *NotificationRepo) MarkRead(_ context.Context, companyID, userID, id string, at time.Time) (bool, error) {
	found := false
	err := r.s.with(false, func(st *state) error {
		for i := range st.notifications {
			n := &st.notifications[i]
			if n.ID == id && n.CompanyID == companyID && n.UserID == userID {
				if n.ReadAt == nil {
					t := at
					n.ReadAt = &t
				}
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *NotificationRepo) MarkAllRead(_ context.Context, companyID, userID string, at time.Time) (int64, error) {
	var n int64
	err := r.s.with(false, func(st *state) error {
		for i := range st.notifications {
			x := &st.notifications[i]
			if x.CompanyID == companyID && x.UserID == userID && x.ReadAt == nil {
				t := at
				x.ReadAt = &t
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *NotificationRepo) PurgeRead(_ context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.with(false, func(st *state) error {
		kept := st.notifications[:0]
		for _, x := range st.notifications {
			if x.ReadAt != nil && x.ReadAt.Before(before) {
				n++
				continue
			}
			kept = append(kept, x)
		}
		st.notifications = kept
		return nil
	})
	return n, err
}

// HistoryRepo bitácora en memoria.
type HistoryRepo struct {
	s    *Store
	inTx bool
}

func (r *HistoryRepo) Append(_ context.Context, e *entity.HistoryEntry) error {
	return r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("history.append"); err != nil {
			return err
		}
		st.history = append(st.history, *e)
		return nil
	})
}

func (r *HistoryRepo) List(_ context.Context, companyID string, kind entity.EntityKind, entityID string) ([]*entity.HistoryEntry, error) {
	var out []*entity.HistoryEntry
	err := r.s.with(r.inTx, func(st *state) error {
		for i := len(st.history) - 1; i >= 0; i-- {
			e := st.history[i]
			if e.CompanyID == companyID && e.EntityKind == kind && e.EntityID == entityID {
				out = append(out, &e)
			}
		}
		return nil
	})
	return out, err
}
