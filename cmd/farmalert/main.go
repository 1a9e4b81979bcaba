// Package main is the entry point for the farm alert engine.
package main

import "farm-alerts/cmd/farmalert/cmd"

func main() {
	cmd.Execute()
}
