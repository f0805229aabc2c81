// Package main is the entry point for contractgate.
package main

func main() {
	Execute()
}
