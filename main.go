package main

import "github.com/mediaiq/miq/cmd"

func main() {
	cmd.Execute()
}
