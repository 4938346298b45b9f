package main

import "github.com/drgolem/musictools/cmd"

func main() {
	cmd.Execute()
}
