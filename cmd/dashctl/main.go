// Command dashctl drives the dashboard state store from the command line:
// it lists filter options, replays recorded sessions, manages saved
// snapshots and runs transformation scripts over the filtered data.
package main

import (
	"fmt"
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := newApp().rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		exitFunc(1)
	}
}
