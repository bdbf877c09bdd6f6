package main

import "github.com/MeKo-Tech/ocrbatch/cmd/ocrbatch/cmd"

func main() {
	cmd.Execute()
}
