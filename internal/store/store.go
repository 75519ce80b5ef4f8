package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/elonfeng/tripradar/pkg/match"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ProfileRecord is a saved preference profile.
type ProfileRecord struct {
	ID        string        `json:"id"`
	Profile   match.Profile `json:"profile"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// CachedPlace is an external place with the time it was last fetched.
type CachedPlace struct {
	match.ExternalPlace
	FetchedAt time.Time `json:"fetched_at"`
}

// TopPick is the best-ranked recommendation last seen for a profile.
type TopPick struct {
	ProfileID string    `db:"profile_id" json:"profile_id"`
	Mode      string    `db:"mode" json:"mode"`
	Name      string    `db:"name" json:"name"`
	Score     int       `db:"score" json:"score"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Store is the persistence interface.
type Store interface {
	UpsertDestinations(ctx context.Context, dests []match.Destination) error
	ListDestinations(ctx context.Context) ([]match.Destination, error)
	GetDestination(ctx context.Context, name string) (*match.Destination, error)
	CountDestinations(ctx context.Context) (int, error)

	SaveProfile(ctx context.Context, rec *ProfileRecord) error
	GetProfile(ctx context.Context, id string) (*ProfileRecord, error)
	ListProfiles(ctx context.Context) ([]ProfileRecord, error)

	UpsertPlaces(ctx context.Context, places []match.ExternalPlace, fetchedAt time.Time) error
	ListPlaces(ctx context.Context, regions []string, since time.Time) ([]CachedPlace, error)

	GetTopPick(ctx context.Context, profileID, mode string) (*TopPick, error)
	SetTopPick(ctx context.Context, pick *TopPick) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type destinationRow struct {
	Name      string    `db:"name"`
	Region    string    `db:"region"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *SQLiteStore) UpsertDestinations(ctx context.Context, dests []match.Destination) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, d := range dests {
		if d.Name == "" {
			return errors.New("upsert destination: name is required")
		}
		d.ImageURL = ""
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encode destination %s: %w", d.Name, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO destinations (name, region, data, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				region = excluded.region,
				data = excluded.data,
				updated_at = excluded.updated_at
		`, d.Name, d.Region, string(data), now)
		if err != nil {
			return fmt.Errorf("upsert destination %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

// ListDestinations returns the catalog in insertion order.
func (s *SQLiteStore) ListDestinations(ctx context.Context) ([]match.Destination, error) {
	var rows []destinationRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT name, region, data, updated_at FROM destinations ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}

	dests := make([]match.Destination, 0, len(rows))
	for _, r := range rows {
		var d match.Destination
		if err := json.Unmarshal([]byte(r.Data), &d); err != nil {
			return nil, fmt.Errorf("decode destination %s: %w", r.Name, err)
		}
		dests = append(dests, d)
	}
	return dests, nil
}

func (s *SQLiteStore) GetDestination(ctx context.Context, name string) (*match.Destination, error) {
	var r destinationRow
	err := s.db.GetContext(ctx, &r,
		"SELECT name, region, data, updated_at FROM destinations WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get destination %s: %w", name, err)
	}

	var d match.Destination
	if err := json.Unmarshal([]byte(r.Data), &d); err != nil {
		return nil, fmt.Errorf("decode destination %s: %w", name, err)
	}
	return &d, nil
}

func (s *SQLiteStore) CountDestinations(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM destinations"); err != nil {
		return 0, fmt.Errorf("count destinations: %w", err)
	}
	return n, nil
}

type profileRow struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r profileRow) record() (*ProfileRecord, error) {
	rec := &ProfileRecord{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
	if err := json.Unmarshal([]byte(r.Data), &rec.Profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", r.ID, err)
	}
	return rec, nil
}

// SaveProfile inserts or replaces a profile. CreatedAt is kept from the
// first save; UpdatedAt is set to now.
func (s *SQLiteStore) SaveProfile(ctx context.Context, rec *ProfileRecord) error {
	if rec.ID == "" {
		return errors.New("save profile: id is required")
	}
	data, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", rec.ID, err)
	}

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`, rec.ID, string(data), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*ProfileRecord, error) {
	var r profileRow
	err := s.db.GetContext(ctx, &r,
		"SELECT id, data, created_at, updated_at FROM profiles WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return r.record()
}

func (s *SQLiteStore) ListProfiles(ctx context.Context) ([]ProfileRecord, error) {
	var rows []profileRow
	err := s.db.SelectContext(ctx, &rows,
		"SELECT id, data, created_at, updated_at FROM profiles ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	recs := make([]ProfileRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

type placeRow struct {
	ID               string       `db:"id"`
	Source           string       `db:"source"`
	Region           string       `db:"region"`
	Name             string       `db:"name"`
	Rating           float64      `db:"rating"`
	UserRatingsTotal int          `db:"user_ratings_total"`
	Types            string       `db:"types"`
	OpenNow          sql.NullBool `db:"open_now"`
	Vicinity         string       `db:"vicinity"`
	Lat              float64      `db:"lat"`
	Lng              float64      `db:"lng"`
	FetchedAt        time.Time    `db:"fetched_at"`
}

// UpsertPlaces caches places by ID. Places without an ID cannot be cached
// and are skipped.
func (s *SQLiteStore) UpsertPlaces(ctx context.Context, places []match.ExternalPlace, fetchedAt time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range places {
		if p.ID == "" {
			continue
		}
		typesJSON, err := json.Marshal(p.Types)
		if err != nil {
			return fmt.Errorf("encode place %s: %w", p.ID, err)
		}
		var openNow sql.NullBool
		if p.OpenNow != nil {
			openNow = sql.NullBool{Bool: *p.OpenNow, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO places (id, source, region, name, rating, user_ratings_total, types, open_now, vicinity, lat, lng, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				source = excluded.source,
				region = excluded.region,
				name = excluded.name,
				rating = excluded.rating,
				user_ratings_total = excluded.user_ratings_total,
				types = excluded.types,
				open_now = excluded.open_now,
				vicinity = excluded.vicinity,
				lat = excluded.lat,
				lng = excluded.lng,
				fetched_at = excluded.fetched_at
		`, p.ID, p.Source, p.Region, p.Name, p.Rating, p.UserRatingsTotal,
			string(typesJSON), openNow, p.Vicinity, p.Location.Lat, p.Location.Lng, fetchedAt.UTC())
		if err != nil {
			return fmt.Errorf("upsert place %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// ListPlaces returns cached places fetched at or after since, in insertion
// order. An empty regions list matches every region.
func (s *SQLiteStore) ListPlaces(ctx context.Context, regions []string, since time.Time) ([]CachedPlace, error) {
	query := `SELECT id, source, region, name, rating, user_ratings_total, types, open_now, vicinity, lat, lng, fetched_at
		FROM places WHERE fetched_at >= ?`
	args := []any{since.UTC()}

	if len(regions) > 0 {
		q, inArgs, err := sqlx.In(" AND region IN (?)", regions)
		if err != nil {
			return nil, fmt.Errorf("list places: %w", err)
		}
		query += q
		args = append(args, inArgs...)
	}
	query += " ORDER BY rowid"

	var rows []placeRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}

	out := make([]CachedPlace, 0, len(rows))
	for _, r := range rows {
		p := match.ExternalPlace{
			ID:               r.ID,
			Name:             r.Name,
			Rating:           r.Rating,
			UserRatingsTotal: r.UserRatingsTotal,
			Vicinity:         r.Vicinity,
			Location:         match.Location{Lat: r.Lat, Lng: r.Lng},
			Region:           r.Region,
			Source:           r.Source,
		}
		if err := json.Unmarshal([]byte(r.Types), &p.Types); err != nil {
			return nil, fmt.Errorf("decode place %s: %w", r.ID, err)
		}
		if r.OpenNow.Valid {
			open := r.OpenNow.Bool
			p.OpenNow = &open
		}
		out = append(out, CachedPlace{ExternalPlace: p, FetchedAt: r.FetchedAt})
	}
	return out, nil
}

func (s *SQLiteStore) GetTopPick(ctx context.Context, profileID, mode string) (*TopPick, error) {
	var pick TopPick
	err := s.db.GetContext(ctx, &pick,
		"SELECT profile_id, mode, name, score, updated_at FROM top_picks WHERE profile_id = ? AND mode = ?",
		profileID, mode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get top pick %s/%s: %w", profileID, mode, err)
	}
	return &pick, nil
}

func (s *SQLiteStore) SetTopPick(ctx context.Context, pick *TopPick) error {
	if pick.UpdatedAt.IsZero() {
		pick.UpdatedAt = time.Now().UTC()
	}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO top_picks (profile_id, mode, name, score, updated_at)
		VALUES (:profile_id, :mode, :name, :score, :updated_at)
		ON CONFLICT(profile_id, mode) DO UPDATE SET
			name = excluded.name,
			score = excluded.score,
			updated_at = excluded.updated_at
	`, pick)
	if err != nil {
		return fmt.Errorf("set top pick %s/%s: %w", pick.ProfileID, pick.Mode, err)
	}
	return nil
}
