package main

import "github.com/mjansen/strata/cmd"

func main() {
	cmd.Execute()
}
