package main

import "github.com/keithrincon/picklebookie-sub000/cmd"

func main() {
	cmd.Run()
}
