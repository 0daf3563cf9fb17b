package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/followscope/pkg/analytics"
	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/sw33tLie/followscope/pkg/tracker"
)

var notFollowingBackCmd = &cobra.Command{
	Use:   "not-following-back",
	Short: "List accounts you follow that don't follow you back",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		byFollowers, _ := cmd.Flags().GetBool("sort-by-followers")

		p, err := newProvider(cmd, promptInput(cmd))
		if err != nil {
			return err
		}
		defer logout(cmd, p)

		followers, following, err := social.FetchRelationships(cmd.Context(), p)
		if err != nil {
			return err
		}

		users := tracker.FindNotFollowingBack(followers, following)
		if byFollowers {
			tracker.SortByFollowers(users)
		}
		total := len(users)
		if limit > 0 && len(users) > limit {
			users = users[:limit]
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d accounts don't follow you back\n", total)
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tFULL NAME\tFOLLOWERS\tVERIFIED\t")
		for _, u := range users {
			fmt.Fprintf(w, "@%s\t%s\t%d\t%t\t\n", u.Username, u.FullName, u.FollowerCount, u.IsVerified)
		}
		w.Flush()

		return maybeExport(cmd, "not_following_back", users)
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Follower analytics: counts, ratio and mutual follows",
	RunE: func(cmd *cobra.Command, _ []string) error {
		p, err := newProvider(cmd, promptInput(cmd))
		if err != nil {
			return err
		}
		defer logout(cmd, p)

		profile, err := p.Profile(cmd.Context(), "")
		if err != nil {
			return err
		}
		followers, following, err := social.FetchRelationships(cmd.Context(), p)
		if err != nil {
			return err
		}

		a := analytics.Followers(profile, followers, following)
		printFollowerAnalytics(cmd, a)
		return maybeExport(cmd, "analytics", a)
	},
}

func printFollowerAnalytics(cmd *cobra.Command, a analytics.FollowerAnalytics) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Followers\t%d\t\n", a.FollowerCount)
	fmt.Fprintf(w, "Following\t%d\t\n", a.FollowingCount)
	fmt.Fprintf(w, "Posts\t%d\t\n", a.PostsCount)
	fmt.Fprintf(w, "Followers fetched\t%d\t\n", a.FollowersListSize)
	fmt.Fprintf(w, "Following fetched\t%d\t\n", a.FollowingListSize)
	fmt.Fprintf(w, "Follower/following ratio\t%.2f\t\n", a.FollowerFollowingRatio)
	fmt.Fprintf(w, "Mutual follows\t%d\t\n", a.MutualFollows)
	w.Flush()
}

var lowEngagersCmd = &cobra.Command{
	Use:   "low-engagers",
	Short: "Followers who liked or commented the least on your recent posts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		postsN, _ := cmd.Flags().GetInt("posts")
		top, _ := cmd.Flags().GetInt("top")
		concurrency, _ := cmd.Flags().GetInt("concurrency")

		p, err := newProvider(cmd, promptInput(cmd))
		if err != nil {
			return err
		}
		defer logout(cmd, p)

		followers, err := p.Followers(cmd.Context())
		if err != nil {
			return err
		}
		posts, err := p.Posts(cmd.Context(), postsN)
		if err != nil {
			return err
		}

		engagers, warnings := analytics.LowEngagers(cmd.Context(), p, posts, followers,
			analytics.EngagementOptions{Top: top, Concurrency: concurrency})
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %v\n", w)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Engagement over the last %d posts:\n", len(posts))
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "USERNAME\tFULL NAME\tENGAGEMENTS\t")
		for _, e := range engagers {
			fmt.Fprintf(w, "@%s\t%s\t%d\t\n", e.Username, e.FullName, e.Engagements)
		}
		w.Flush()
		return maybeExport(cmd, "low_engagers", engagers)
	},
}

func init() {
	rootCmd.AddCommand(notFollowingBackCmd)
	notFollowingBackCmd.Flags().Int("limit", 0, "Show at most this many accounts (0 = all)")
	notFollowingBackCmd.Flags().Bool("sort-by-followers", false, "Sort by follower count, highest first")
	addExportFlags(notFollowingBackCmd)

	rootCmd.AddCommand(analyticsCmd)
	addExportFlags(analyticsCmd)

	rootCmd.AddCommand(lowEngagersCmd)
	lowEngagersCmd.Flags().Int("posts", 10, "Number of recent posts to inspect")
	lowEngagersCmd.Flags().Int("top", 20, "Number of followers to list (0 = all)")
	lowEngagersCmd.Flags().Int("concurrency", 3, "Number of posts fetched in parallel")
	addExportFlags(lowEngagersCmd)
}
