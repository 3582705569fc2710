package main

import "jojarts/cmd"

func main() {
	cmd.Execute()
}
