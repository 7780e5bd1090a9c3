package main

import "github.com/mvp-joe/triumph-js/internal/cli"

func main() {
	cli.Execute()
}
