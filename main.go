package main

import "github.com/Tiliavir/pioneer-tracker/cmd"

func main() {
	cmd.Execute()
}
