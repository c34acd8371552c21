/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/aryanprajapat98/REMS/cmd"

func main() {
	cmd.Execute()
}
