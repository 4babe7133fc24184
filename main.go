package main

import "github.com/DivyanshuTiwari-1/makeupai/cmd"

func main() {
	cmd.Execute()
}
