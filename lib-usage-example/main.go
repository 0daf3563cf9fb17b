package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sw33tLie/followscope/pkg/social"
	"github.com/sw33tLie/followscope/pkg/social/dev"
	"github.com/sw33tLie/followscope/pkg/storage"
	"github.com/sw33tLie/followscope/pkg/tracker"
)

func main() {
	// Usage: go run *.go -dir /tmp/snapshots

	dirFlag := flag.String("dir", "", "Directory where snapshots are stored")

	// Parse the command-line flags
	flag.Parse()

	if *dirFlag == "" {
		fmt.Println("Directory is required. Please provide it using -dir flag.")
		return
	}

	store, err := storage.NewFileStore(*dirFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer store.Close()

	// Any social.Provider works here, the dev one needs no credentials
	p := dev.NewProvider()
	ctx := context.Background()
	followers, following, err := social.FetchRelationships(ctx, p)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	res, err := tracker.Run(ctx, tracker.Config{
		Store:     store,
		Account:   p.Account(),
		Followers: followers,
		Following: following,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if !res.HasBaseline() {
		fmt.Println("Baseline saved to", res.Saved.Location)
		return
	}
	for _, u := range res.Unfollowers {
		fmt.Println("-", u.Username, u.UnfollowedSince)
	}
	for _, u := range res.NewFollowers {
		fmt.Println("+", u.Username, u.FollowedSince)
	}
}
