package main

import "github.com/sunwrangle/sunwrangle-cli/cmd"

func main() {
	cmd.Execute()
}
