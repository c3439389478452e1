package main

import "github.com/Kazuha787/Pharos-Auto-Bot/cmd"

func main() {
	cmd.Execute()
}
