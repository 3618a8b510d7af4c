// Package casestore reads case metadata and runs lexical search over the
// SQLite case_lookup table and its FTS5 index.
package casestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	"github.com/kailas-cloud/casedex/internal/domain/search/boolquery"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
)

// getManyChunk bounds the IN list of one GetMany round trip.
const getManyChunk = 500

const selectColumns = `c.id, c.title, c.court, c.jurisdiction, c.case_type, c.decided, c.decided_day,
	c.citation, c.docket_number, c.judges, c.snippet, c.summary, c.file_name`

// querier is the consumer interface over *sql.DB.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the metadata store client. It never writes.
type Store struct {
	db querier
}

// New creates a metadata store over an open database.
func New(db querier) *Store {
	return &Store{db: db}
}

// Get returns one case by id.
func (s *Store) Get(ctx context.Context, id string) (courtcase.Case, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM case_lookup c WHERE c.id = ?", id)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return courtcase.Case{}, fmt.Errorf("case %s: %w", id, domain.ErrCaseNotFound)
		}
		return courtcase.Case{}, unavailable("get", err)
	}
	return c, nil
}

// GetMany returns the cases found among ids keyed by id. Missing ids are absent from the map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]courtcase.Case, error) {
	out := make(map[string]courtcase.Case, len(ids))
	for start := 0; start < len(ids); start += getManyChunk {
		chunk := ids[start:min(start+getManyChunk, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		q := "SELECT " + selectColumns + " FROM case_lookup c WHERE c.id IN (" + placeholders(len(chunk)) + ")"
		if err := s.collect(ctx, q, args, func(c courtcase.Case) { out[c.ID()] = c }); err != nil {
			return nil, unavailable("get many", err)
		}
	}
	return out, nil
}

// FullTextSearch ranks cases matching text and expr by BM25.
// Scores are positive, non-increasing, with ties ordered by id. The second
// return value is the total number of matches before the k cut.
func (s *Store) FullTextSearch(
	ctx context.Context, text string, expr filter.Expression, k int,
) ([]result.Candidate, int, error) {
	if expr.IsNever() || k <= 0 {
		return nil, 0, nil
	}
	match := boolquery.MatchExpression(text)
	if match == "" {
		return nil, 0, nil
	}

	cands, total, err := s.fullText(ctx, match, expr, k)
	if err != nil && isFTSSyntaxError(err) {
		fallback := boolquery.FallbackFTS5(text)
		if fallback == "" {
			return nil, 0, nil
		}
		cands, total, err = s.fullText(ctx, fallback, expr, k)
	}
	if err != nil {
		return nil, 0, unavailable("full text search", err)
	}
	return cands, total, nil
}

func (s *Store) fullText(
	ctx context.Context, match string, expr filter.Expression, k int,
) ([]result.Candidate, int, error) {
	where, wargs := buildWhere(expr)
	from := " FROM case_lookup_fts JOIN case_lookup c ON c.rowid = case_lookup_fts.rowid" +
		" WHERE case_lookup_fts MATCH ? AND " + where
	args := append([]any{match}, wargs...)

	// bm25 column weights: title, citation, snippet, judges
	q := "SELECT " + selectColumns + ", bm25(case_lookup_fts, 10.0, 5.0, 1.0, 2.0) AS rank" +
		from + " ORDER BY rank ASC, c.id ASC LIMIT ?"

	rows, err := s.db.QueryContext(ctx, q, append(args, k)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []result.Candidate
	for rows.Next() {
		var rank float64
		c, err := scanCase(rows, &rank)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, result.Candidate{
			ID:      c.ID(),
			Score:   max(0, -rank),
			Source:  result.SourceText,
			Payload: c,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Browse lists cases matching expr without a query, newest first unless o is DateAsc.
// Undated cases sort last. The second return value is the total match count.
func (s *Store) Browse(
	ctx context.Context, expr filter.Expression, o order.Order, k int,
) ([]courtcase.Case, int, error) {
	if expr.IsNever() || k <= 0 {
		return nil, 0, nil
	}
	where, args := buildWhere(expr)

	dir := "DESC"
	if o == order.DateAsc {
		dir = "ASC"
	}
	q := "SELECT " + selectColumns + " FROM case_lookup c WHERE " + where +
		" ORDER BY c.decided_day IS NULL, c.decided_day " + dir + ", c.id ASC LIMIT ?"

	var out []courtcase.Case
	if err := s.collect(ctx, q, append(args, k), func(c courtcase.Case) { out = append(out, c) }); err != nil {
		return nil, 0, unavailable("browse", err)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM case_lookup c WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, unavailable("browse count", err)
	}
	return out, total, nil
}

// FilterOptions returns the distinct filter values present in the store.
func (s *Store) FilterOptions(ctx context.Context) (filter.Options, error) {
	jurisdictions, err := s.distinct(ctx, "jurisdiction")
	if err != nil {
		return filter.Options{}, unavailable("filter options", err)
	}
	courts, err := s.distinct(ctx, "court")
	if err != nil {
		return filter.Options{}, unavailable("filter options", err)
	}
	rawTypes, err := s.distinct(ctx, "case_type")
	if err != nil {
		return filter.Options{}, unavailable("filter options", err)
	}

	seen := make(map[courtcase.Type]struct{}, len(rawTypes))
	for _, raw := range rawTypes {
		if t, ok := courtcase.ParseType(raw); ok {
			seen[t] = struct{}{}
		}
	}
	types := make([]courtcase.Type, 0, len(seen))
	for _, t := range courtcase.Types() {
		if _, ok := seen[t]; ok {
			types = append(types, t)
		}
	}

	return filter.Options{Jurisdictions: jurisdictions, Courts: courts, CaseTypes: types}, nil
}

// Ping runs a trivial query to verify the store answers.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT "+column+" FROM case_lookup WHERE "+column+" <> '' ORDER BY "+column+" COLLATE NOCASE")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) collect(ctx context.Context, q string, args []any, fn func(courtcase.Case)) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return err
		}
		fn(c)
	}
	return rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanCase is the single normalization point for case_lookup rows.
func scanCase(row scanner, extra ...any) (courtcase.Case, error) {
	var (
		f       courtcase.Fields
		decided sql.NullString
		day     sql.NullInt64
	)
	dest := []any{
		&f.ID, &f.Title, &f.Court, &f.Jurisdiction, &f.CaseType, &decided, &day,
		&f.Citation, &f.DocketNumber, &f.Judges, &f.Snippet, &f.Summary, &f.ContentRef,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return courtcase.Case{}, err
	}

	switch {
	case day.Valid:
		f.Decided = courtcase.FromDayNumber(day.Int64)
	case decided.Valid:
		f.Decided = parseISODate(decided.String)
	}
	return courtcase.Reconstruct(f), nil
}

// parseISODate accepts a plain date or an RFC 3339 timestamp.
func parseISODate(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func isFTSSyntaxError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "fts5") || strings.Contains(msg, "syntax error")
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
