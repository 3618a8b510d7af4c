package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/casedex/internal/config"
	"github.com/kailas-cloud/casedex/internal/domain"
	"github.com/kailas-cloud/casedex/internal/domain/courtcase"
	domenh "github.com/kailas-cloud/casedex/internal/domain/enhancement"
	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
	casedetailuc "github.com/kailas-cloud/casedex/internal/usecase/casedetail"
	searchuc "github.com/kailas-cloud/casedex/internal/usecase/search"
	"github.com/kailas-cloud/casedex/internal/version"
)

func gardner() courtcase.Case {
	return courtcase.Reconstruct(courtcase.Fields{
		ID:           "oh-1",
		Title:        "State v. Gardner",
		Court:        "Supreme Court of Ohio",
		Jurisdiction: "Ohio",
		CaseType:     "Criminal",
		Decided:      time.Date(2008, 6, 5, 0, 0, 0, 0, time.UTC),
		Citation:     "118 Ohio St.3d 420",
		Snippet:      "burglary of an occupied structure",
	})
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	return cmd, buf
}

type fakeSearcher struct {
	page result.Page
	err  error
	got  request.Request
}

func (f *fakeSearcher) Search(_ context.Context, req request.Request) (result.Page, error) {
	f.got = req
	return f.page, f.err
}

type fakeCases struct {
	full casedetailuc.Full
	err  error
}

func (f fakeCases) GetCase(context.Context, string) (courtcase.Case, error) {
	return f.full.Case, f.err
}

func (f fakeCases) GetCaseFull(context.Context, string) (casedetailuc.Full, error) {
	return f.full, f.err
}

type fakeIndex struct {
	exists bool
	count  int
	err    error
	dims   int
}

func (f *fakeIndex) IndexName() string { return "casedex:idx:cases" }

func (f *fakeIndex) EnsureIndex(_ context.Context, dims int) (bool, error) {
	f.dims = dims
	if f.err != nil {
		return false, f.err
	}
	return !f.exists, nil
}

func (f *fakeIndex) Count(context.Context, filter.Expression) (int, error) {
	return f.count, f.err
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	root := NewRootCmd()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "search", "case", "index", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("env"))
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	root := NewRootCmd()
	root.SetArgs([]string{"search"})
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)

	require.Error(t, root.Execute())
}

func TestSearchCmd_RejectsBadFlagsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"sort", []string{"search", "bail", "--sort", "random"}, "--sort"},
		{"from", []string{"search", "bail", "--from", "June 2008"}, "--from"},
		{"format", []string{"search", "bail", "--format", "xml"}, "--format"},
		{"offset", []string{"search", "bail", "--offset", "-1"}, "offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRootCmd()
			root.SetArgs(append(tt.args, "--env", "does-not-exist"))
			buf := &bytes.Buffer{}
			root.SetOut(buf)
			root.SetErr(buf)

			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSearchOptions_Request(t *testing.T) {
	opts := searchOptions{
		limit:        5,
		offset:       10,
		jurisdiction: []string{"Ohio"},
		court:        []string{"Supreme Court of Ohio", "Ohio Court of Appeals"},
		from:         "2000-01-01",
		sort:         "date_asc",
	}
	req, err := opts.request("burglary")
	require.NoError(t, err)

	assert.Equal(t, "burglary", req.Text())
	assert.Equal(t, 5, req.Limit())
	assert.Equal(t, 10, req.Offset())
	assert.Equal(t, order.DateAsc, req.Order())
	assert.Equal(t, "Supreme Court of Ohio,Ohio Court of Appeals", req.Filters().Court)
	require.NotNil(t, req.Filters().DateFrom)
	assert.Nil(t, req.Filters().DateTo)

	browse, err := searchOptions{limit: 10, sort: "relevance"}.request("*")
	require.NoError(t, err)
	assert.True(t, browse.IsBrowse())
}

func TestRunSearch_Text(t *testing.T) {
	s := &fakeSearcher{page: result.Page{
		Hits:           []result.Hit{result.NewHit(gardner(), 0.72)},
		TotalAvailable: 9,
		Limit:          10,
		QueryTimeMs:    42,
	}}
	req, err := request.New("burglary", filter.Filters{}, order.Relevance, 0, 10)
	require.NoError(t, err)

	cmd, buf := testCmd()
	require.NoError(t, runSearch(context.Background(), cmd, s, req, "text"))

	out := buf.String()
	assert.Contains(t, out, "Showing 1-1 of 9 cases (42 ms)")
	assert.Contains(t, out, "1. State v. Gardner (score: 0.720)")
	assert.Contains(t, out, "Supreme Court of Ohio | Ohio | Criminal | 2008-06-05 | 118 Ohio St.3d 420")
	assert.Contains(t, out, "id: oh-1")
}

func TestRunSearch_JSON(t *testing.T) {
	s := &fakeSearcher{page: result.Page{
		Hits:           []result.Hit{result.NewHit(gardner(), 0.5)},
		TotalAvailable: 1,
		Limit:          10,
	}}
	req, err := request.New("burglary", filter.Filters{}, order.Relevance, 0, 10)
	require.NoError(t, err)

	cmd, buf := testCmd()
	require.NoError(t, runSearch(context.Background(), cmd, s, req, "json"))

	var out searchOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "oh-1", out.Results[0].ID)
	assert.Equal(t, "2008-06-05", out.Results[0].DateDecided)
	require.NotNil(t, out.Results[0].Score)
	assert.InDelta(t, 0.5, *out.Results[0].Score, 1e-9)
	assert.Equal(t, "burglary", out.Query)
	assert.Equal(t, 1, out.Total)
}

func TestRunSearch_EmptyAndError(t *testing.T) {
	req, err := request.New("nothing", filter.Filters{}, order.Relevance, 0, 10)
	require.NoError(t, err)

	cmd, buf := testCmd()
	require.NoError(t, runSearch(context.Background(), cmd, &fakeSearcher{}, req, "text"))
	assert.Contains(t, buf.String(), `No cases found for "nothing"`)

	failing := &fakeSearcher{err: fmt.Errorf("%w: both legs down", domain.ErrRetrievalFailed)}
	err = runSearch(context.Background(), cmd, failing, req, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
}

func TestRunCase(t *testing.T) {
	c := gardner().WithEnhancement("Key Legal Issue: burglary.", []string{"The structure was occupied."})
	cases := fakeCases{full: casedetailuc.Full{
		Case:        c,
		Text:        "OPINION. The structure was occupied.",
		HasFullText: true,
		Enhancement: domenh.New(c.Summary(), c.KeyPassages(), domenh.SourceAI, time.Now()),
	}}

	cmd, buf := testCmd()
	require.NoError(t, runCase(context.Background(), cmd, cases, "oh-1", false, "text"))
	assert.Contains(t, buf.String(), "State v. Gardner")
	assert.Contains(t, buf.String(), "Key Legal Issue: burglary.")
	assert.NotContains(t, buf.String(), "OPINION.")

	cmd, buf = testCmd()
	require.NoError(t, runCase(context.Background(), cmd, cases, "oh-1", true, "json"))
	var out fullCaseOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.True(t, out.HasFullText)
	assert.Equal(t, "ai", out.SummarySource)
	assert.Equal(t, "OPINION. The structure was occupied.", out.FullText)
	assert.Equal(t, "State v. Gardner", out.Title)

	missing := fakeCases{err: fmt.Errorf("case x: %w", domain.ErrCaseNotFound)}
	err := runCase(context.Background(), cmd, missing, "x", false, "text")
	assert.ErrorIs(t, err, domain.ErrCaseNotFound)
}

func TestEnsureIndex(t *testing.T) {
	idx := &fakeIndex{}
	cmd, buf := testCmd()
	created, err := ensureIndex(context.Background(), cmd, idx, 768)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 768, idx.dims)
	assert.Contains(t, buf.String(), "Created index casedex:idx:cases (768 dimensions)")

	idx.exists = true
	cmd, buf = testCmd()
	created, err = ensureIndex(context.Background(), cmd, idx, 768)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Contains(t, buf.String(), "already exists")

	_, err = ensureIndex(context.Background(), cmd, &fakeIndex{err: errors.New("boom")}, 768)
	assert.Error(t, err)
}

func TestIndexInfo(t *testing.T) {
	cmd, buf := testCmd()
	require.NoError(t, indexInfo(context.Background(), cmd, &fakeIndex{count: 1234}))
	assert.Equal(t, "Index casedex:idx:cases: 1234 cases\n", buf.String())
}

func TestSearchConfig(t *testing.T) {
	var cfg config.Config
	cfg.ApplyDefaults()
	cfg.Search.ConfidenceMetric = "mean_top5"
	cfg.Search.Window = "page"
	cfg.Search.EmbedTimeoutMs = 1500
	cfg.Enhancement.PrefetchTop = 3

	got := searchConfig(cfg)
	assert.Equal(t, 0.45, got.Threshold)
	assert.Equal(t, searchuc.ConfidenceMeanTop5, got.ConfidenceMetric)
	assert.Equal(t, searchuc.WindowPage, got.Window)
	assert.Equal(t, 1500*time.Millisecond, got.EmbedRetry.AttemptTimeout)
	assert.Equal(t, 3, got.EmbedRetry.Attempts)
	assert.Equal(t, 2, got.IndexRetry.Attempts)
	assert.Equal(t, 2, got.StoreRetry.Attempts)
	assert.Equal(t, 10*time.Second, got.RequestTimeout)
	assert.Zero(t, got.PrefetchTop, "prefetch top is ignored without workers")

	cfg.Enhancement.PrefetchWorkers = 2
	assert.Equal(t, 3, searchConfig(cfg).PrefetchTop)
}

func TestVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "casedex "+version.Version))
	assert.Contains(t, buf.String(), "commit")

	cmd = newVersionCmd()
	buf.Reset()
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})
	require.NoError(t, cmd.Execute())
	var info versionInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, version.Version, info.Version)
}
