package main

import "github.com/viktoriya-kutsarova/project-gravity/cmd/alarm-watch/cmd"

func main() {
	cmd.Execute()
}
