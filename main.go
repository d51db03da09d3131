package main

import "github.com/courseloop/courseloop/cmd"

func main() {
	cmd.Execute()
}
