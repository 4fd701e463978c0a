package main

import "github.com/yeremiapane/restaurant-reservations/commands"

func main() {
	commands.Execute()
}
