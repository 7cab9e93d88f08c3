package main

import "feedback-portal/cmd"

func main() {
	cmd.Execute()
}
