package main

import "github.com/lirlia/vlsr/cmd"

func main() {
	cmd.Execute()
}
