package main

import "github.com/fatih/color"

var (
	// Green applies green color to output.
	Green = color.New(color.FgGreen).SprintFunc()
	// Cyan applies cyan color to output.
	Cyan = color.New(color.FgCyan).SprintFunc()
	// Gray applies gray color to output.
	Gray = color.New(color.FgHiBlack).SprintFunc()
	// Bold applies bold style to output.
	Bold = color.New(color.Bold).SprintFunc()
	// BoldRed applies bold red color to output.
	BoldRed = color.New(color.FgRed, color.Bold).SprintFunc()
)
