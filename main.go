package main

import "github.com/mnemo-ai/mnemo/cmd"

func main() {
	cmd.Execute()
}
