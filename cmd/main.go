package main

import "github.com/homelang/homec/pkg/cmd"

func main() {
	cmd.Execute()
}
