package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/casedex/internal/domain/search/filter"
	"github.com/kailas-cloud/casedex/internal/domain/search/order"
	"github.com/kailas-cloud/casedex/internal/domain/search/request"
	"github.com/kailas-cloud/casedex/internal/domain/search/result"
)

const dateLayout = "2006-01-02"

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit        int
	offset       int
	jurisdiction []string
	court        []string
	caseType     []string
	from         string
	to           string
	sort         string
	format       string // "text", "json"
}

type searcher interface {
	Search(ctx context.Context, req request.Request) (result.Page, error)
}

func newSearchCmd(env *string) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the case corpus",
		Long: `Search cases by meaning and keywords.

Vector results are used alone when they are confident enough; otherwise
they are fused with full-text matches. Use "*" to list cases matching the
filters without a query.

Examples:
  casedex search "warrantless search of a vehicle"
  casedex search '"qualified immunity" AND NOT excessive' --court "Supreme Court of Ohio"
  casedex search "*" --jurisdiction Ohio --from 2010-01-01 --sort date_desc
  casedex search "sentencing" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := validFormat(opts.format); err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), *env)
			if err != nil {
				return err
			}
			defer a.Close()
			return runSearch(cmd.Context(), cmd, a.search, req, opts.format)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", request.DefaultLimit, "Maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Number of ranked results to skip")
	cmd.Flags().StringSliceVarP(&opts.jurisdiction, "jurisdiction", "j", nil, "Filter by jurisdiction (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.court, "court", "c", nil, "Filter by court (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.caseType, "case-type", "t", nil, "Filter by case type (repeatable)")
	cmd.Flags().StringVar(&opts.from, "from", "", "Earliest decision date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.to, "to", "", "Latest decision date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.sort, "sort", string(order.Relevance), "Ordering: relevance, date_desc, date_asc")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

// request validates the flags and builds a search request.
func (o searchOptions) request(query string) (request.Request, error) {
	from, err := parseDateFlag("from", o.from)
	if err != nil {
		return request.Request{}, err
	}
	to, err := parseDateFlag("to", o.to)
	if err != nil {
		return request.Request{}, err
	}
	ord, ok := order.Parse(o.sort)
	if !ok {
		return request.Request{}, fmt.Errorf("invalid --sort %q: must be relevance, date_desc or date_asc", o.sort)
	}
	filters := filter.Filters{
		Jurisdiction: strings.Join(o.jurisdiction, ","),
		Court:        strings.Join(o.court, ","),
		CaseType:     strings.Join(o.caseType, ","),
		DateFrom:     from,
		DateTo:       to,
	}
	return request.New(query, filters, ord, o.offset, o.limit)
}

func runSearch(ctx context.Context, cmd *cobra.Command, s searcher, req request.Request, format string) error {
	page, err := s.Search(ctx, req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if format == "json" {
		hits := make([]caseOutput, len(page.Hits))
		for i, h := range page.Hits {
			hits[i] = toCaseOutput(h.Case())
			score := h.Score()
			hits[i].Score = &score
		}
		return writeJSON(cmd.OutOrStdout(), searchOutput{
			Results:        hits,
			Query:          req.Text(),
			Total:          len(hits),
			TotalAvailable: page.TotalAvailable,
			Offset:         page.Offset,
			Limit:          page.Limit,
			QueryTimeMs:    page.QueryTimeMs,
		})
	}

	out := cmd.OutOrStdout()
	if len(page.Hits) == 0 {
		_, err := fmt.Fprintf(out, "No cases found for %q\n", req.Text())
		return err
	}
	fmt.Fprintf(out, "Showing %d-%d of %d cases (%d ms)\n\n",
		page.Offset+1, page.Offset+len(page.Hits), page.TotalAvailable, page.QueryTimeMs)
	for i, h := range page.Hits {
		c := h.Case()
		fmt.Fprintf(out, "%d. %s (score: %.3f)\n", page.Offset+i+1, c.Title(), h.Score())
		fmt.Fprintf(out, "   %s\n", describeCase(c))
		if c.Snippet() != "" {
			fmt.Fprintf(out, "   %s\n", c.Snippet())
		}
		fmt.Fprintf(out, "   id: %s\n\n", c.ID())
	}
	return nil
}

func parseDateFlag(name, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: must be YYYY-MM-DD", name, v)
	}
	return &t, nil
}

func validFormat(f string) error {
	if f != "text" && f != "json" {
		return fmt.Errorf("invalid --format %q: must be text or json", f)
	}
	return nil
}
