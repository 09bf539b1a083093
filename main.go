package main

import "github.com/educare/track_backend/cmd"

func main() {
	cmd.Execute()
}
