package main

import "github.com/sw33tLie/followscope/cmd"

func main() {
	cmd.Execute()
}
