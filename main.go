package main

import "github.com/ryan-gang/mailqueue/cmd"

func main() {
	cmd.Execute()
}
