package main

import "github.com/tonimelisma/spsync/cmd"

func main() {
	cmd.Execute()
}
