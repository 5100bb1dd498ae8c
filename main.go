package main

import "github.com/pdmirror/pdmirror/cmd"

func main() {
	cmd.Execute()
}
