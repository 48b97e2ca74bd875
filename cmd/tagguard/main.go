package main

import "github.com/oshokin/tag-guard/cmd/tagguard/cmd"

func main() {
	cmd.Execute()
}
