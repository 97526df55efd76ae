// main.go
package main

import "storefront/cmd"

func main() {
	cmd.Execute()
}
