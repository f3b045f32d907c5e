package main

import "github.com/nextlevelbuilder/chanlock/cmd"

func main() {
	cmd.Execute()
}
