package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

func printTitle(msg string) {
	fmt.Println(titleStyle.Render(msg))
}

func printSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}

func printSubtle(msg string) {
	fmt.Println(subtleStyle.Render(msg))
}

func printError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}
