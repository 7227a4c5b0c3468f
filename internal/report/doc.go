// Package report renders matrices, check results and plots for the terminal.
package report
