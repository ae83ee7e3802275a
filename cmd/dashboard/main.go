package main

import "energy_dashboard/cmd/dashboard/cmd"

func main() {
	cmd.Execute()
}
