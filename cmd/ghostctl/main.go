// Command ghostctl conceals payloads inside class files and recovers them.
package main

func main() {
	execute()
}
