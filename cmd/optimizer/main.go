package main

import "github.com/adsctl/optimizer/internal/cli"

func main() {
	cli.Execute()
}
