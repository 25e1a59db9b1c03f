package main

import "github.com/Skotchmaster/shopping_app/cmd/shop/commands"

func main() {
	commands.Execute()
}
