package main

import "chatcord-server/internal/app"

func main() {
	app.Run()
}
