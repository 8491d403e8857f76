package main

import (
	"lite2flake/cmd"
)

func main() {
	cmd.Execute()
}
