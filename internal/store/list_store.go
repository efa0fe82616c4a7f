package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/geotask/internal/gateway"
	"github.com/nhle/geotask/internal/model"
)

const listColumns = `id, name, owner_id,
	location_latitude, location_longitude,
	location_latitude_delta, location_longitude_delta,
	created_at, updated_at`

// listRow mirrors the lists table, with the nullable location columns
// flattened.
type listRow struct {
	ID        string          `db:"id"`
	Name      string          `db:"name"`
	OwnerID   string          `db:"owner_id"`
	Lat       sql.NullFloat64 `db:"location_latitude"`
	Lon       sql.NullFloat64 `db:"location_longitude"`
	LatDelta  sql.NullFloat64 `db:"location_latitude_delta"`
	LonDelta  sql.NullFloat64 `db:"location_longitude_delta"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r listRow) toModel() model.List {
	l := model.List{
		ID:        r.ID,
		Name:      r.Name,
		OwnerID:   r.OwnerID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Lat.Valid && r.Lon.Valid {
		l.Location = &model.GeoRegion{
			Latitude:       r.Lat.Float64,
			Longitude:      r.Lon.Float64,
			LatitudeDelta:  r.LatDelta.Float64,
			LongitudeDelta: r.LonDelta.Float64,
		}
	}
	return l
}

// CreateList inserts a new list with no location and returns the stored row.
func (s *SQLStore) CreateList(ctx context.Context, in model.NewList) (*model.List, error) {
	const op = "create"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, gateway.Validation(gateway.EntityList, op, "list name must not be empty")
	}
	if in.OwnerID == "" {
		return nil, gateway.E(gateway.KindUnauthenticated, gateway.EntityList, op, gateway.ErrUnauthenticated)
	}

	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.exec(ctx, `
		INSERT INTO lists (id, name, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, name, in.OwnerID, now, now,
	)
	if err != nil {
		return nil, internal(gateway.EntityList, op, err)
	}
	return s.mustFetchList(ctx, id, op)
}

// FetchLists returns every list owned by ownerID in creation order.
func (s *SQLStore) FetchLists(ctx context.Context, ownerID string) ([]model.List, error) {
	var rows []listRow
	err := s.sel(ctx, &rows,
		"SELECT "+listColumns+" FROM lists WHERE owner_id = ? ORDER BY created_at, id",
		ownerID,
	)
	if err != nil {
		return nil, internal(gateway.EntityList, "fetch", err)
	}

	lists := make([]model.List, 0, len(rows))
	for _, r := range rows {
		lists = append(lists, r.toModel())
	}
	return lists, nil
}

// FetchList retrieves a single list by ID, or nil if it does not exist.
func (s *SQLStore) FetchList(ctx context.Context, id string) (*model.List, error) {
	var row listRow
	err := s.get(ctx, &row, "SELECT "+listColumns+" FROM lists WHERE id = ?", id)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(gateway.EntityList, "fetch", err)
	}
	l := row.toModel()
	return &l, nil
}

// UpdateList applies patch to the list and returns the updated row.
func (s *SQLStore) UpdateList(ctx context.Context, id string, patch model.ListPatch) (*model.List, error) {
	const op = "update"
	current, err := s.FetchList(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, gateway.NotFound(gateway.EntityList, op, id)
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, gateway.Validation(gateway.EntityList, op, "list name must not be empty")
	}
	if patch.Location != nil && !patch.ClearLocation {
		if err := patch.Location.Validate(); err != nil {
			return nil, gateway.E(gateway.KindValidation, gateway.EntityList, op, err)
		}
	}

	next := patch.Apply(*current)
	next.Name = strings.TrimSpace(next.Name)
	var loc model.GeoRegion
	if next.Location != nil {
		loc = *next.Location
	}
	has := next.Location != nil

	res, err := s.exec(ctx, `
		UPDATE lists SET
			name = ?,
			location_latitude = ?, location_longitude = ?,
			location_latitude_delta = ?, location_longitude_delta = ?,
			updated_at = ?
		WHERE id = ?`,
		next.Name,
		nullFloat(loc.Latitude, has), nullFloat(loc.Longitude, has),
		nullFloat(loc.LatitudeDelta, has), nullFloat(loc.LongitudeDelta, has),
		time.Now().UTC(), id,
	)
	if err != nil {
		return nil, internal(gateway.EntityList, op, err)
	}
	if err := mustAffect(res, gateway.EntityList, op, id); err != nil {
		return nil, err
	}
	return s.mustFetchList(ctx, id, op)
}

// DeleteList removes a list. Its tasks and their subtasks are removed by
// cascade.
func (s *SQLStore) DeleteList(ctx context.Context, id string) error {
	res, err := s.exec(ctx, "DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return internal(gateway.EntityList, "delete", err)
	}
	return mustAffect(res, gateway.EntityList, "delete", id)
}

// ListOwner returns the owner of a list, or "" when the list does not exist.
func (s *SQLStore) ListOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.get(ctx, &owner, "SELECT owner_id FROM lists WHERE id = ?", id)
	if isNoRows(err) {
		return "", nil
	}
	if err != nil {
		return "", internal(gateway.EntityList, "fetch", err)
	}
	return owner, nil
}

func (s *SQLStore) mustFetchList(ctx context.Context, id, op string) (*model.List, error) {
	l, err := s.FetchList(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, gateway.NotFound(gateway.EntityList, op, id)
	}
	return l, nil
}
