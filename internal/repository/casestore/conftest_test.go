package casestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/casedex/internal/db/sqlite"
)

type fixtureRow struct {
	id, title, court, jurisdiction, caseType string
	decided                                  any // ISO string or nil
	day                                      any // int64 or nil
	citation, judges, snippet, fileName      string
}

var fixtureRows = []fixtureRow{
	{
		id: "c-1", title: "Arizona v. Gant", court: "Supreme Court", jurisdiction: "federal",
		caseType: "criminal", decided: "2009-04-21", day: int64(14355),
		citation: "556 U.S. 332", judges: "Stevens",
		snippet:  "Police may search a vehicle incident to arrest only when the arrestee is within reaching distance.",
		fileName: "part-0001.parquet",
	},
	{
		id: "c-2", title: "Carroll v. United States", court: "Supreme Court", jurisdiction: "federal",
		caseType: "criminal", decided: "1925-03-02", day: int64(-16376),
		citation: "267 U.S. 132", judges: "Taft",
		snippet:  "Warrantless vehicle search upheld under the automobile exception.",
		fileName: "part-0001.parquet",
	},
	{
		id: "c-3", title: "Smith v. Jones", court: "Court of Appeals", jurisdiction: "california",
		caseType: "civil", decided: nil, day: nil,
		snippet:  "Contract dispute over delivery of goods.",
		fileName: "part-0002.parquet",
	},
	{
		id: "c-4", title: "In re Doe", court: "court of appeals", jurisdiction: "California",
		caseType: "Administrative", decided: "not a date", day: nil,
		snippet:  "License revocation after an administrative hearing on a vehicle permit.",
		fileName: "part-0002.parquet",
	},
	{
		id: "c-5", title: "People v. Brown", court: "Superior Court", jurisdiction: "california",
		caseType: "tax", decided: "2015-06-01", day: int64(16587),
		snippet:  "Search of a vehicle at a checkpoint.",
		fileName: "part-0003.parquet",
	},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sqlite.Open(sqlite.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.ExecContext(ctx, Schema)
	require.NoError(t, err)

	for _, r := range fixtureRows {
		_, err := db.ExecContext(ctx, `INSERT INTO case_lookup
			(id, title, court, jurisdiction, case_type, decided, decided_day, citation, judges, snippet, file_name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.id, r.title, r.court, r.jurisdiction, r.caseType, r.decided, r.day,
			r.citation, r.judges, r.snippet, r.fileName)
		require.NoError(t, err)
	}
	return New(db)
}
