package main

import "github.com/papapumpkin/apb/cmd"

func main() {
	cmd.Execute()
}
