// Command canvasgraph assembles canvas outpaint pipeline graphs from
// generation configurations and checks stored graphs.
package main

func main() {
	Execute()
}
