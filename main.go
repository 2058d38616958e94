package main

import "github.com/dabcheck/dabcheck/cmd/dabcheck"

func main() { dabcheck.Execute() }
