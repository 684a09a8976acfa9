package main

import "os"

func main() {
	a := newApp()
	if err := execute(a, newRootCmd(a)); err != nil {
		os.Exit(1)
	}
}
