package main

import "studyline/cmd/study/root"

func main() {
	root.Execute()
}
