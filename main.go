package main

import "github.com/audiolibrelab/loopcanvas/cmd"

func main() {
	cmd.Execute()
}
