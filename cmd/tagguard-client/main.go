package main

import "github.com/oshokin/tag-guard/cmd/tagguard-client/cmd"

func main() {
	cmd.Execute()
}
