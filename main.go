package main

import "github.com/YohanssenPardede/proyek-analisis-data/cmd"

func main() {
	cmd.Execute()
}
