package main

import "atlas-booking/cmd"

func main() {
	cmd.Execute()
}
