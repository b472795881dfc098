package main

import "fabagent/cli/cmd"

func main() {
	cmd.Execute()
}
