package main

import "commentsieve/internal/app"

func main() {
	app.Main()
}
