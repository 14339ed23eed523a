package main

import "github.com/cravesound/craveengine/cmd"

func main() {
	cmd.Execute()
}
