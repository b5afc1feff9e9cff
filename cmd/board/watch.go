package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emilythestrangee/feedback-board/backend/internal/board"
	"github.com/emilythestrangee/feedback-board/backend/internal/feed"
	"github.com/emilythestrangee/feedback-board/backend/internal/models"
)

var (
	watchServer string
	watchToken  string
	watchSort   string
	watchWeek   string
	watchTags   string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow a week's request list live",
	Long: `Fetches the request list once, then keeps it current from the change feed.
The list is re-fetched only when an event cannot be applied locally.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchServer, "server", "http://localhost:8080", "Board server URL")
	watchCmd.Flags().StringVar(&watchToken, "token", "", "Bearer token; shows your own votes")
	watchCmd.Flags().StringVar(&watchSort, "sort", "votes", "votes, newest or discussed")
	watchCmd.Flags().StringVar(&watchWeek, "week", "this", "this, last or a non-positive week offset")
	watchCmd.Flags().StringVar(&watchTags, "tags", "", "Comma-separated tags a request must all carry")
}

type boardClient struct {
	base  string
	token string
	http  *http.Client
}

func (c *boardClient) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *boardClient) viewer(ctx context.Context) (uuid.UUID, error) {
	if c.token == "" {
		return uuid.Nil, nil
	}
	var session struct {
		User models.User `json:"user"`
	}
	if err := c.get(ctx, "/api/auth/session", nil, &session); err != nil {
		return uuid.Nil, err
	}
	return session.User.ID, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	mode, err := board.ParseSortMode(watchSort)
	if err != nil {
		return err
	}
	offset, err := board.ParseWeekOffset(watchWeek)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &boardClient{
		base:  strings.TrimRight(watchServer, "/"),
		token: watchToken,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
	viewer, err := client.viewer(ctx)
	if err != nil {
		return err
	}

	start, end := board.WeekWindow(time.Now(), offset)
	rec := feed.NewReconciler(viewer, mode, start, end)
	selected := board.SplitTags(watchTags)

	query := url.Values{"sort": {string(mode)}, "week": {fmt.Sprint(offset)}}
	fetch := func() error {
		var items []models.RequestSummary
		if err := client.get(ctx, "/api/requests", query, &items); err != nil {
			return err
		}
		rec.Reset(items)
		return nil
	}

	// Subscribe before the first fetch so no change falls between the two.
	stream, err := feed.Dial(ctx, client.base, feed.Filter{}, client.token)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err := fetch(); err != nil {
		return err
	}
	render(os.Stdout, board.FilterByTags(rec.Items(), selected), start, mode)

	for {
		e, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("change feed closed: %w", err)
		}

		refetch, err := rec.Apply(e)
		if err != nil {
			logger.Warn("could not apply change", zap.String("table", e.Table), zap.Error(err))
		}
		if refetch {
			logger.Debug("re-fetching request list", zap.String("table", e.Table), zap.String("type", string(e.Type)))
			if err := fetch(); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
		render(os.Stdout, board.FilterByTags(rec.Items(), selected), start, mode)
	}
}

func render(w io.Writer, items []models.RequestSummary, start time.Time, mode board.SortMode) {
	fmt.Fprintf(w, "\nWeek of %s, by %s\n", start.Format("Jan 2, 2006"), mode)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VOTES\tYOU\tCOMMENTS\tTITLE\tTAGS\tAUTHOR")
	for _, it := range items {
		you := "-"
		if it.UserVote != nil {
			you = string(*it.UserVote)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			it.VoteCount, you, it.CommentCount, it.Title, strings.Join(it.Tags, ","), it.Author.Username)
	}
	if len(items) == 0 {
		fmt.Fprintln(tw, "\t\t\t(no requests)\t\t")
	}
	tw.Flush()
}
