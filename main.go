package main

import "github.com/calebmoss/slipway/cmd"

func main() {
	cmd.Execute()
}
