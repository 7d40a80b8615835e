package main

import "github.com/frahmantamala/license-portal/cmd"

func main() {
	cmd.Execute()
}
