package main

import "papertag/cmd"

func main() {
	cmd.Execute()
}
