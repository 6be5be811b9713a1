package main

import "github.com/clems4ever/saxstream/cmd"

func main() {
	cmd.Execute()
}
