package main

import "github.com/jonandersen/payoff/cmd"

func main() {
	cmd.Execute()
}
