package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/ctfkit/flagdle/internal/solver"
)

var (
	flagColor    = color.New(color.FgGreen, color.Bold)
	summaryColor = color.New(color.Faint)
)

// printResult writes the recovered flag to stdout with a short summary of
// the run underneath.
func printResult(res *solver.Result) {
	fmt.Println()
	flagColor.Println(res.Flag)
	summary := fmt.Sprintf("%d requests in %s", res.Requests, res.Elapsed.Round(time.Millisecond))
	if res.Cleanup {
		summary += " (cleanup search used)"
	}
	summaryColor.Println(summary)
}

// printInterrupted notes an operator interrupt on stderr.
func printInterrupted() {
	fmt.Fprintln(os.Stderr, "[!] interrupted by user")
}
