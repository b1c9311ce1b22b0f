package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompter_Confirm(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\n"), &out)

	ok, err := p.Confirm("Will it rain tomorrow?")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Will it rain tomorrow? [y/N]:")
}

func TestPrompter_Confirm_DefaultsToNo(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})

	ok, err := p.Confirm("Proceed?")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPrompter_Confirm_ReasksOnGarbage(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("maybe\nyes\n"), &out)

	ok, err := p.Confirm("Proceed?")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Please answer yes or no.")
}

func TestPrompter_SelectNumber(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("0\nseven\n3\n"), &out)

	n, err := p.SelectNumber("Select a question by number", 5)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, out.String(), "Enter a number between 1 and 5.")
}

func TestPrompter_Choice(t *testing.T) {
	p := NewPrompter(strings.NewReader("SELL\n"), &bytes.Buffer{})

	choice, err := p.Choice("Select transaction type", "buy", "sell")
	assert.NoError(t, err)
	assert.Equal(t, "sell", choice)
}

func TestPrompter_Amount_Valid(t *testing.T) {
	p := NewPrompter(strings.NewReader("12.5\n"), &bytes.Buffer{})

	amount, ok, err := p.Amount(100)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12.5, amount)
}

func TestPrompter_Amount_RetryThenValid(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("500\ny\n40\n"), &out)

	amount, ok, err := p.Amount(100)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, float64(40), amount)
	assert.Contains(t, out.String(), "Invalid amount. Must be within the allowed range.")
}

func TestPrompter_Amount_BackOut(t *testing.T) {
	p := NewPrompter(strings.NewReader("-3\nn\n"), &bytes.Buffer{})

	_, ok, err := p.Amount(100)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPrompter_Amount_RejectsZero(t *testing.T) {
	p := NewPrompter(strings.NewReader("0\nn\n"), &bytes.Buffer{})

	_, ok, err := p.Amount(100)
	assert.NoError(t, err)
	assert.False(t, ok)
}
