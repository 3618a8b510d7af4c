package casestore

// Schema is the metadata table layout produced by the offline loader.
// decided_day is NULL when the decision date is missing or outside the supported window.
const Schema = `
CREATE TABLE IF NOT EXISTS case_lookup (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL DEFAULT '',
	court         TEXT NOT NULL DEFAULT '',
	jurisdiction  TEXT NOT NULL DEFAULT '',
	case_type     TEXT NOT NULL DEFAULT '',
	decided       TEXT,
	decided_day   INTEGER,
	citation      TEXT NOT NULL DEFAULT '',
	docket_number TEXT NOT NULL DEFAULT '',
	judges        TEXT NOT NULL DEFAULT '',
	snippet       TEXT NOT NULL DEFAULT '',
	summary       TEXT NOT NULL DEFAULT '',
	file_name     TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_case_lookup_jurisdiction ON case_lookup(jurisdiction COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_case_lookup_court ON case_lookup(court COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_case_lookup_decided_day ON case_lookup(decided_day);

CREATE VIRTUAL TABLE IF NOT EXISTS case_lookup_fts USING fts5(
	title, citation, snippet, judges,
	content='case_lookup',
	content_rowid='rowid',
	tokenize='porter unicode61'
);

CREATE TRIGGER IF NOT EXISTS case_lookup_ai AFTER INSERT ON case_lookup BEGIN
	INSERT INTO case_lookup_fts(rowid, title, citation, snippet, judges)
	VALUES (new.rowid, new.title, new.citation, new.snippet, new.judges);
END;

CREATE TRIGGER IF NOT EXISTS case_lookup_ad AFTER DELETE ON case_lookup BEGIN
	INSERT INTO case_lookup_fts(case_lookup_fts, rowid, title, citation, snippet, judges)
	VALUES ('delete', old.rowid, old.title, old.citation, old.snippet, old.judges);
END;
`
