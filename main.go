package main

import "github.com/relaykit/warelay/cmd"

func main() {
	cmd.Execute()
}
