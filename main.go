package main

import "github.com/jonandersen/tradedesk/cmd"

func main() {
	cmd.Execute()
}
