package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/sw33tLie/followscope/pkg/storage"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect stored follower snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, oldest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		infos, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		printSnapshotList(cmd.OutOrStdout(), infos)
		return nil
	},
}

func printSnapshotList(out io.Writer, infos []storage.SnapshotInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(out, "No snapshots stored yet. Run 'followscope track' to create one.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "KEY\tTAKEN AT\tACCOUNT\tFOLLOWERS\tFOLLOWING\t")
	for _, s := range infos {
		if s.Corrupt {
			fmt.Fprintf(w, "%s\t(corrupt)\t-\t-\t-\t\n", s.Key)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t\n", s.Key, s.Datetime, s.Username, s.FollowersCount, s.FollowingCount)
	}
	w.Flush()
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Show the accounts stored in a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		snap, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

func printSnapshot(out io.Writer, snap *storage.Snapshot) {
	fmt.Fprintf(out, "Snapshot %s of @%s taken at %s\n", snap.Key, snap.Username, snap.CapturedAt())
	fmt.Fprintf(out, "Followers: %d, following: %d\n\n", snap.FollowersCount, snap.FollowingCount)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "LIST\tUSER ID\tUSERNAME\tFULL NAME\t")
	for _, list := range []struct {
		name  string
		users map[string]storage.StoredUser
	}{{"follower", snap.Followers}, {"following", snap.Following}} {
		ids := make([]string, 0, len(list.users))
		for id := range list.users {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return list.users[ids[i]].Username < list.users[ids[j]].Username })
		for _, id := range ids {
			u := list.users[id]
			fmt.Fprintf(w, "%s\t%s\t@%s\t%s\t\n", list.name, id, u.Username, u.FullName)
		}
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(snapshotsCmd)
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
}
