package main

import "github.com/RyanBlaney/sonido-stft/internal/cli"

func main() {
	cli.Execute()
}
