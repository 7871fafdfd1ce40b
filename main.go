package main

import "orderpulse/cmd"

func main() {
	cmd.Execute()
}
