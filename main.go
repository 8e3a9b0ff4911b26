package main

import "github.com/cushion-app/cushion-build/cmd"

func main() {
	cmd.Execute()
}
