package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/sw33tLie/followscope/pkg/storage"
	"github.com/sw33tLie/followscope/pkg/tracker"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Compare followers against the latest snapshot",
	Long: `Fetches followers and following, compares them with the latest stored snapshot and prints
unfollowers and new followers. The first run always stores a snapshot; later runs only do so
with --save-snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return fmt.Errorf("unknown command: '%s'. See 'followscope track --help'", args[0])
		}
		save, _ := cmd.Flags().GetBool("save-snapshot")
		yes, _ := cmd.Flags().GetBool("yes")
		return runTracking(cmd, trackOptions{save: save, yes: yes})
	},
}

var reportFollowersCmd = &cobra.Command{
	Use:   "report-followers",
	Short: "Full follower report: not following back, unfollowers and new followers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		yes, _ := cmd.Flags().GetBool("yes")
		return runTracking(cmd, trackOptions{save: true, yes: yes, notFollowingBack: true, limit: limit})
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.Flags().Bool("save-snapshot", false, "Store the current state as the new baseline")
	trackCmd.Flags().BoolP("yes", "y", false, "Don't ask for confirmation before saving")

	rootCmd.AddCommand(reportFollowersCmd)
	reportFollowersCmd.Flags().Int("limit", 20, "Max number of accounts listed per section (0 = all)")
	reportFollowersCmd.Flags().BoolP("yes", "y", false, "Save the snapshot without asking")
}

type trackOptions struct {
	save             bool
	yes              bool
	notFollowingBack bool
	limit            int
}

func runTracking(cmd *cobra.Command, opts trackOptions) error {
	in := promptInput(cmd)
	p, err := newProvider(cmd, in)
	if err != nil {
		return err
	}
	defer logout(cmd, p)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	return track(cmd.Context(), p, store, in, cmd.OutOrStdout(), opts)
}

// track runs one tracking session and prints the outcome to out.
func track(ctx context.Context, p social.Provider, store storage.Store, in *bufio.Reader, out io.Writer, opts trackOptions) error {
	followers, following, err := social.FetchRelationships(ctx, p)
	if err != nil {
		// Diffing a partial list would report everyone missing as an unfollower.
		return fmt.Errorf("aborting tracking for %s: %w", p.Account(), err)
	}
	utils.Log.Infof("Fetched %d followers and %d following", len(followers), len(following))

	printed := false
	cfg := tracker.Config{
		Store:                   store,
		Account:                 p.Account(),
		Followers:               followers,
		Following:               following,
		SaveSnapshot:            opts.save,
		IncludeNotFollowingBack: opts.notFollowingBack,
		Log:                     utils.Log,
	}
	if !opts.yes {
		cfg.Confirm = func(res *tracker.Result) bool {
			printResult(out, res, opts.limit)
			printed = true
			return confirm(in, out, "Save the current state as the new baseline?")
		}
	}

	res, err := tracker.Run(ctx, cfg)
	if err != nil {
		return err
	}
	if !printed {
		printResult(out, res, opts.limit)
	}

	if res.Saved != nil {
		if res.HasBaseline() {
			fmt.Fprintf(out, "Snapshot saved: %s\n", res.Saved.Location)
		} else {
			fmt.Fprintf(out, "First run: baseline snapshot saved to %s\n", res.Saved.Location)
		}
	}
	return nil
}

func printResult(out io.Writer, res *tracker.Result, limit int) {
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if res.NotFollowingBack != nil {
		fmt.Fprintf(out, "Not following back (%d):\n", len(res.NotFollowingBack))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for i, u := range res.NotFollowingBack {
			if limit > 0 && i == limit {
				fmt.Fprintf(w, "  ... and %d more\n", len(res.NotFollowingBack)-limit)
				break
			}
			yellow.Fprintf(w, "  @%s\t%s\t%s\n", u.Username, u.FullName, verifiedMark(u.IsVerified))
		}
		w.Flush()
		fmt.Fprintln(out)
	}

	if !res.HasBaseline() {
		fmt.Fprintln(out, "No previous snapshot to compare against.")
		return
	}

	fmt.Fprintf(out, "Compared with snapshot %s (%s)\n", res.Baseline.Key, res.Baseline.Datetime)
	if len(res.Unfollowers) == 0 && len(res.NewFollowers) == 0 {
		fmt.Fprintln(out, "No changes since the last snapshot.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, u := range res.Unfollowers {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "  ... and %d more unfollowers\n", len(res.Unfollowers)-limit)
			break
		}
		red.Fprintf(w, "  - @%s\t%s\tsince %s\n", u.Username, u.FullName, u.UnfollowedSince)
	}
	for i, u := range res.NewFollowers {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "  ... and %d more new followers\n", len(res.NewFollowers)-limit)
			break
		}
		green.Fprintf(w, "  + @%s\t%s\tdetected %s\n", u.Username, u.FullName, u.FollowedSince)
	}
	w.Flush()
	fmt.Fprintf(out, "Unfollowers: %d, new followers: %d, net change: %+d\n", len(res.Unfollowers), len(res.NewFollowers), res.NetChange())
}

func verifiedMark(v bool) string {
	if v {
		return "verified"
	}
	return ""
}
