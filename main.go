package main

import "github.com/ValentinKolb/dTodo/cmd"

func main() {
	cmd.Execute()
}
