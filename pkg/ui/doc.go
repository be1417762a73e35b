// Package ui renders terminal output for followcheck and reads the answers
// to its interactive prompts.
package ui
