package main

import "github.com/atenas/admin-console/cmd"

func main() {
	cmd.Execute()
}
