/*
Copyright © 2025 TaskFlow contributors
*/
package main

import "github.com/taskflowhq/taskflow/cmd"

func main() {
	cmd.Execute()
}
