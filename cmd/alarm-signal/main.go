package main

import "github.com/viktoriya-kutsarova/project-gravity/cmd/alarm-signal/cmd"

func main() {
	cmd.Execute()
}
