/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/moviemania/frontend/cmd"

func main() {
	cmd.Execute()
}
