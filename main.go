package main

import "blog-server/cmd"

func main() {
	cmd.Execute()
}
