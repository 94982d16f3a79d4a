package charm

import (
	"golang.org/x/exp/slices"
)

// Input is the cursor over one run's argument tokens. It tracks how much of
// the stream has been consumed; pushed-back tokens (from `--name=value`
// splitting) are seen before the remaining stream.
type Input struct {
	args   []string
	offset int
	pushed []string
}

// NewInput returns an input over the provided tokens.
func NewInput(args []string) *Input {
	return &Input{args: slices.Clone(args)}
}

// Peek returns the next token without consuming it.
func (i *Input) Peek() (string, bool) {
	if len(i.pushed) > 0 {
		return i.pushed[len(i.pushed)-1], true
	}
	if i.offset >= len(i.args) {
		return "", false
	}
	return i.args[i.offset], true
}

// Pop consumes and returns the next token.
func (i *Input) Pop() (string, bool) {
	if len(i.pushed) > 0 {
		s := i.pushed[len(i.pushed)-1]
		i.pushed = i.pushed[:len(i.pushed)-1]
		return s, true
	}
	if i.offset >= len(i.args) {
		return "", false
	}
	s := i.args[i.offset]
	i.offset++
	return s, true
}

// Push places a token at the front of the stream.
func (i *Input) Push(s string) {
	i.pushed = append(i.pushed, s)
}

// NumRemaining returns the number of unconsumed tokens.
func (i *Input) NumRemaining() int {
	return len(i.pushed) + len(i.args) - i.offset
}

// Remaining returns the unconsumed tokens in order.
func (i *Input) Remaining() []string {
	var r []string
	for j := len(i.pushed) - 1; j >= 0; j-- {
		r = append(r, i.pushed[j])
	}
	return append(r, i.args[i.offset:]...)
}
