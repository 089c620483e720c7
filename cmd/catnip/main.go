// Command catnip checks hook signatures against host binaries on disk.
package main

func main() {
	Execute()
}
