package main

import "github.com/viktoriya-kutsarova/project-gravity/cmd/alarm-service/cmd"

func main() {
	cmd.Execute()
}
