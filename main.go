package main

import "github.com/openkart/racecore/cmd"

func main() {
	cmd.Execute()
}
