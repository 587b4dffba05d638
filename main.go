package main

import "github.com/ValentinKolb/serialkv/cmd"

func main() {
	cmd.Execute()
}
