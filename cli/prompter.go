package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter reads interactive answers line by line. All prompts re-ask on
// unparsable input instead of failing the session.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Empty input means no.
func (p *Prompter) Confirm(question string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [y/N]: ", question)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer yes or no.")
	}
}

// SelectNumber asks for a number between 1 and max inclusive.
func (p *Prompter) SelectNumber(prompt string, max int) (int, error) {
	for {
		fmt.Fprintf(p.out, "%s (1-%d): ", prompt, max)
		line, err := p.readLine()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= max {
			return n, nil
		}
		fmt.Fprintf(p.out, "Enter a number between 1 and %d.\n", max)
	}
}

// Choice asks the user to pick one of the given options, case-insensitively.
func (p *Prompter) Choice(prompt string, options ...string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, strings.Join(options, "/"))
		line, err := p.readLine()
		if err != nil {
			return "", err
		}
		for _, opt := range options {
			if strings.EqualFold(line, opt) {
				return opt, nil
			}
		}
		fmt.Fprintf(p.out, "Please choose one of: %s\n", strings.Join(options, ", "))
	}
}

// Amount asks for a money amount in (0, max]. An out-of-range value offers
// a retry; declining returns ok=false, meaning the user backed out.
func (p *Prompter) Amount(max float64) (float64, bool, error) {
	for {
		fmt.Fprintf(p.out, "Enter amount. limit %s$: ", formatFloat(max))
		line, err := p.readLine()
		if err != nil {
			return 0, false, err
		}
		amount, err := strconv.ParseFloat(line, 64)
		if err == nil && amount > 0 && amount <= max {
			return amount, true, nil
		}
		fmt.Fprintln(p.out, "Invalid amount. Must be within the allowed range.")
		again, err := p.Confirm("Do you wish to try again?")
		if err != nil {
			return 0, false, err
		}
		if !again {
			return 0, false, nil
		}
	}
}

// Line prints the prompt on its own line and reads one line of free text.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprintln(p.out, prompt)
	return p.readLine()
}
