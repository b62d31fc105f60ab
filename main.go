package main

import "github.com/kathembo-tsongo/timetabling-sub001/cmd"

func main() {
	cmd.Execute()
}
