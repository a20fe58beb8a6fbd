package main

import "github.com/fakeyudi/luaqa/cmd"

func main() {
	cmd.Execute()
}
