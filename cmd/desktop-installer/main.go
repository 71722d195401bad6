package main

import "github.com/oshokin/desktop-installer/cmd/desktop-installer/cmd"

func main() {
	cmd.Execute()
}
