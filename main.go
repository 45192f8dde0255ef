package main

import "voicebook/internal/app"

func main() {
	app.Run()
}
