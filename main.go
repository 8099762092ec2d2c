package main

import "github.com/encodeous/olsr/cmd"

func main() {
	cmd.Execute()
}
