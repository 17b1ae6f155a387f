// Command searchagent is an interactive chat that decides per turn whether
// to search the web and grounds its answer in a verified page.
package main

func main() {
	Execute()
}
