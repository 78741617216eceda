package main

import "pharmsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
