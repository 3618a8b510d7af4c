// Package casedex embeds hybrid case-law search in a Go program.
//
// The client reads a prebuilt corpus: case vectors and payloads in a Redis
// index, case metadata and an FTS5 table in SQLite, and optionally the
// opinion texts in parquet files. It never writes to any of them.
//
// # Searching
//
//	client, _ := casedex.New(
//	    casedex.WithRedis("localhost:6379", ""),
//	    casedex.WithSQLite("data/cases.db"),
//	    casedex.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	page, _ := client.Query("warrantless vehicle search").
//	    Jurisdiction("Ohio").
//	    Since(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)).
//	    Limit(20).
//	    Do(ctx)
//
// Without an embedder the client still answers from the full-text index.
//
// # Reading cases
//
//	c, _ := client.Case(ctx, "oh-2008-1234")
//	full, _ := client.CaseFull(ctx, "oh-2008-1234") // text + summary
package casedex
