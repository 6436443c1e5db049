// Command trito runs the retail fashion consultant chat.
package main

import "github.com/diogo/trito/internal/commands"

func main() {
	commands.Execute()
}
