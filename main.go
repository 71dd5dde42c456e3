package main

import "github.com/itsmostafa/rewind/cmd"

func main() {
	cmd.Execute()
}
