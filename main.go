/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/kgkhs001/BrighamWomensApp/cmd"

func main() {
	cmd.Execute()
}
