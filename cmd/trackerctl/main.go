package main

import "readtracker/cmd/trackerctl/commands"

func main() {
	commands.Execute()
}
