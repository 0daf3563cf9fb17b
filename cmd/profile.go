package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/followscope/internal/utils"
	"github.com/sw33tLie/followscope/pkg/analytics"
	"github.com/sw33tLie/followscope/pkg/social"
)

const bioPreviewLength = 50

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List your recent posts with likes and comments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		p, err := newProvider(cmd, promptInput(cmd))
		if err != nil {
			return err
		}
		defer logout(cmd, p)

		posts, err := p.Posts(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printPosts(cmd.OutOrStdout(), posts)
		return maybeExport(cmd, "posts", posts)
	},
}

func printPosts(out io.Writer, posts []social.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(out, "No posts found.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tLIKES\tCOMMENTS\tDATE\tCAPTION\t")
	for _, post := range posts {
		caption := strings.ReplaceAll(post.Caption, "\n", " ")
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t\n", post.ID, post.LikeCount, post.CommentCount,
			post.TakenAt.Format(time.DateOnly), utils.Truncate(caption, bioPreviewLength))
	}
	w.Flush()
}

var userInfoCmd = &cobra.Command{
	Use:   "user-info [username]",
	Short: "Show profile information (defaults to your own account)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := ""
		if len(args) == 1 {
			username = strings.TrimPrefix(args[0], "@")
		}

		p, err := newProvider(cmd, promptInput(cmd))
		if err != nil {
			return err
		}
		defer logout(cmd, p)

		profile, err := p.Profile(cmd.Context(), username)
		if err != nil {
			return err
		}
		printProfile(cmd.OutOrStdout(), profile)
		return nil
	},
}

func printProfile(out io.Writer, profile *social.Profile) {
	fullName := profile.FullName
	if fullName == "" {
		fullName = social.DefaultFullName
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Username\t@%s\t\n", profile.Username)
	fmt.Fprintf(w, "Full name\t%s\t\n", fullName)
	fmt.Fprintf(w, "Bio\t%s\t\n", utils.Truncate(strings.ReplaceAll(profile.Biography, "\n", " "), bioPreviewLength))
	fmt.Fprintf(w, "Followers\t%d\t\n", profile.FollowerCount)
	fmt.Fprintf(w, "Following\t%d\t\n", profile.FollowingCount)
	fmt.Fprintf(w, "Posts\t%d\t\n", profile.MediaCount)
	fmt.Fprintf(w, "Private\t%t\t\n", profile.IsPrivate)
	fmt.Fprintf(w, "Verified\t%t\t\n", profile.IsVerified)
	if domains := analytics.LinkDomains(profile); len(domains) > 0 {
		fmt.Fprintf(w, "Linked domains\t%s\t\n", strings.Join(domains, ", "))
	}
	w.Flush()
}

// accountReport is the document written by `report --export`.
type accountReport struct {
	GeneratedAt time.Time                   `json:"generated_at" yaml:"generated_at"`
	Profile     *social.Profile             `json:"profile" yaml:"profile"`
	Analytics   analytics.FollowerAnalytics `json:"analytics" yaml:"analytics"`
	Posts       []social.Post               `json:"posts" yaml:"posts"`
	Insights    *analytics.ContentInsights  `json:"content_insights,omitempty" yaml:"content_insights,omitempty"`
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Profile, follower analytics, recent posts and content insights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		postsLimit, _ := cmd.Flags().GetInt("posts-limit")

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
		posts, err := p.Posts(cmd.Context(), postsLimit)
		if err != nil {
			return err
		}

		report := accountReport{
			GeneratedAt: time.Now(),
			Profile:     profile,
			Analytics:   analytics.Followers(profile, followers, following),
			Posts:       posts,
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "== Profile ==")
		printProfile(out, profile)
		fmt.Fprintln(out, "\n== Follower analytics ==")
		printFollowerAnalytics(cmd, report.Analytics)
		fmt.Fprintln(out, "\n== Recent posts ==")
		printPosts(out, posts)

		if insights, ok := analytics.Insights(posts, profile.FollowerCount); ok {
			report.Insights = &insights
			fmt.Fprintln(out, "\n== Content insights ==")
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			fmt.Fprintf(w, "Average likes\t%.1f\t\n", insights.AvgLikes)
			fmt.Fprintf(w, "Average comments\t%.1f\t\n", insights.AvgComments)
			fmt.Fprintf(w, "Total engagement\t%d\t\n", insights.TotalEngagement)
			fmt.Fprintf(w, "Engagement rate\t%.2f%%\t\n", insights.EngagementRate)
			w.Flush()
		}

		return maybeExport(cmd, "report", report)
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
	postsCmd.Flags().Int("limit", 10, "Number of recent posts to show")
	addExportFlags(postsCmd)

	rootCmd.AddCommand(userInfoCmd)

	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().Int("posts-limit", 10, "Number of recent posts included in the report")
	addExportFlags(reportCmd)
}
