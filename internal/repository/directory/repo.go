// Package directory reads profile records from the Postgres directory.
package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // postgres dialect

	"github.com/kailas-cloud/netmatch/internal/db"
	"github.com/kailas-cloud/netmatch/internal/domain"
	"github.com/kailas-cloud/netmatch/internal/domain/profile"
	"github.com/kailas-cloud/netmatch/internal/domain/search/filter"
)

const (
	skillsAgg = `COALESCE((SELECT json_agg(json_build_object('skill', json_build_object('name', s.name)) ORDER BY s.name)
		FROM user_skills us JOIN skills s ON s.id = us.skill_id WHERE us.user_id = u.id), '[]')`
	intentsAgg = `COALESCE((SELECT json_agg(json_build_object('intent', json_build_object('name', ui.intent)) ORDER BY ui.intent)
		FROM user_intents ui WHERE ui.user_id = u.id), '[]')`
	educationAgg = `COALESCE((SELECT json_agg(json_build_object('school', e.school, 'degree', e.degree, 'field_of_study', e.field_of_study))
		FROM education e WHERE e.user_id = u.id), '[]')`
	employmentAgg = `COALESCE((SELECT json_agg(json_build_object('company', em.company, 'title', em.title))
		FROM employment em WHERE em.user_id = u.id), '[]')`
)

// Repo reads directory records.
type Repo struct {
	db    *goqu.Database
	limit uint
}

// New creates a directory repository. limit caps filtered search results; 0 means no cap.
func New(conn *sql.DB, limit int) *Repo {
	if limit < 0 {
		limit = 0
	}
	return &Repo{db: goqu.New("postgres", conn), limit: uint(limit)}
}

// ListAll returns every profile except excludeID, ordered by name. It is not capped.
func (r *Repo) ListAll(ctx context.Context, excludeID string) ([]profile.Record, error) {
	ds := r.listDataset(excludeID)
	return r.query(ctx, ds, "list profiles")
}

// Search returns profiles matching the pushed-down criteria of f.
// Skills match if the profile has any of them (case-insensitive); location is a
// case-insensitive substring; intent is an exact match. Availability and working
// style are not stored and are ignored here.
func (r *Repo) Search(ctx context.Context, f filter.StructuredFilter, excludeID string) ([]profile.Record, error) {
	ds := r.listDataset(excludeID)
	if r.limit > 0 {
		ds = ds.Limit(r.limit)
	}

	if skills := f.Skills(); len(skills) > 0 {
		lower := make([]string, len(skills))
		for i, s := range skills {
			lower[i] = strings.ToLower(s)
		}
		sub := r.db.From(goqu.T("user_skills").As("us")).
			Join(goqu.T("skills").As("s"), goqu.On(goqu.I("s.id").Eq(goqu.I("us.skill_id")))).
			Select(goqu.L("1")).
			Where(
				goqu.I("us.user_id").Eq(goqu.I("u.id")),
				goqu.Func("LOWER", goqu.I("s.name")).In(lower),
			)
		ds = ds.Where(goqu.L("EXISTS ?", sub))
	}

	if loc := f.Location(); loc != "" {
		ds = ds.Where(goqu.I("u.location").ILike("%" + escapeLike(loc) + "%"))
	}

	if intent := f.Intent(); intent != "" {
		sub := r.db.From(goqu.T("user_intents").As("ui")).
			Select(goqu.L("1")).
			Where(
				goqu.I("ui.user_id").Eq(goqu.I("u.id")),
				goqu.I("ui.intent").Eq(string(intent)),
			)
		ds = ds.Where(goqu.L("EXISTS ?", sub))
	}

	return r.query(ctx, ds, "search profiles")
}

// Get returns one profile with education and employment summaries.
func (r *Repo) Get(ctx context.Context, id string) (profile.Record, error) {
	query, args, err := r.db.From(goqu.T("users").As("u")).
		Prepared(true).
		Select(append(baseColumns(),
			goqu.L(educationAgg).As("education"),
			goqu.L(employmentAgg).As("employment"),
		)...).
		Where(goqu.I("u.id").Eq(id)).
		ToSQL()
	if err != nil {
		return profile.Record{}, fmt.Errorf("%w: build get profile query: %w", domain.ErrStore, err)
	}

	var (
		row            rawRow
		eduRaw, empRaw []byte
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(append(row.dest(), &eduRaw, &empRaw)...)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.Record{}, fmt.Errorf("profile %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return profile.Record{}, storeErr(db.OpQuery, "get profile", err)
	}

	rec, err := row.record()
	if err != nil {
		return profile.Record{}, storeErr(db.OpScan, "get profile", err)
	}
	if err := json.Unmarshal(eduRaw, &rec.Education); err != nil {
		return profile.Record{}, storeErr(db.OpScan, "decode education", err)
	}
	if err := json.Unmarshal(empRaw, &rec.Employment); err != nil {
		return profile.Record{}, storeErr(db.OpScan, "decode employment", err)
	}
	return rec, nil
}

func (r *Repo) listDataset(excludeID string) *goqu.SelectDataset {
	ds := r.db.From(goqu.T("users").As("u")).
		Prepared(true).
		Select(baseColumns()...).
		Order(goqu.I("u.name").Asc(), goqu.I("u.id").Asc())
	if excludeID != "" {
		ds = ds.Where(goqu.I("u.id").Neq(excludeID))
	}
	return ds
}

func (r *Repo) query(ctx context.Context, ds *goqu.SelectDataset, op string) ([]profile.Record, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: build %s query: %w", domain.ErrStore, op, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(db.OpQuery, op, err)
	}
	defer rows.Close()

	records := make([]profile.Record, 0)
	for rows.Next() {
		var row rawRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, storeErr(db.OpScan, op, err)
		}
		rec, err := row.record()
		if err != nil {
			return nil, storeErr(db.OpScan, op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(db.OpQuery, op, err)
	}
	return records, nil
}

func baseColumns() []any {
	return []any{
		goqu.I("u.id"),
		goqu.I("u.name"),
		goqu.I("u.role"),
		goqu.I("u.location"),
		goqu.I("u.bio"),
		goqu.L(skillsAgg).As("skills"),
		goqu.L(intentsAgg).As("intents"),
	}
}

// rawRow is the scan target for base columns.
type rawRow struct {
	id, name            string
	role, location, bio sql.NullString
	skills, intents     []byte
}

func (r *rawRow) dest() []any {
	return []any{&r.id, &r.name, &r.role, &r.location, &r.bio, &r.skills, &r.intents}
}

func (r *rawRow) record() (profile.Record, error) {
	rec := profile.Record{
		ID:       r.id,
		Name:     r.name,
		Role:     nullable(r.role),
		Location: nullable(r.location),
		Bio:      nullable(r.bio),
	}
	if err := json.Unmarshal(r.skills, &rec.Skills); err != nil {
		return profile.Record{}, fmt.Errorf("decode skills: %w", err)
	}
	if err := json.Unmarshal(r.intents, &rec.Intents); err != nil {
		return profile.Record{}, fmt.Errorf("decode intents: %w", err)
	}
	return rec, nil
}

func nullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func storeErr(op, what string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStore, what, &db.Error{Op: op, Err: err})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
