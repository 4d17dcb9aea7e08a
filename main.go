package main

import "ntag424ctl/cmd"

func main() {
	cmd.Execute()
}
