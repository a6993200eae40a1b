package main

import "github.com/jmehdipour/emay-gateway/cmd"

func main() {
	cmd.Execute()
}
