package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

var errMalformedMove = errors.New("expected two numbers: row col")

// Input reads human moves as "row col" lines.
type Input struct {
	mu  sync.Mutex
	out io.Writer

	lines   chan string
	scanErr error
}

func NewInput(in io.Reader, out io.Writer) *Input {
	input := &Input{
		out:   out,
		lines: make(chan string),
	}

	go input.scan(bufio.NewScanner(in))

	return input
}

func (that *Input) scan(scanner *bufio.Scanner) {
	defer close(that.lines)

	for scanner.Scan() {
		that.lines <- scanner.Text()
	}

	that.scanErr = scanner.Err()
}

// GetHumanMove prompts until a legal action is entered. It returns io.EOF once the input is exhausted.
func (that *Input) GetHumanMove(ctx context.Context, actions []entity.Action) (entity.Action, error) {
	for {
		that.printf("Your move (row col), open cells: %s\n", formatActions(actions))

		select {
		case <-ctx.Done():
			return entity.Action{}, ctx.Err()
		case line, ok := <-that.lines:
			if !ok {
				if that.scanErr != nil {
					return entity.Action{}, fmt.Errorf("failed to read move: %w", that.scanErr)
				}
				return entity.Action{}, io.EOF
			}

			action, err := parseAction(line)
			if err != nil {
				that.printf("Invalid move: %v\n", err)
				continue
			}

			if !slices.Contains(actions, action) {
				that.printf("Invalid move: %s is not an open cell\n", action)
				continue
			}

			return action, nil
		}
	}
}

func (that *Input) Announce(message string) {
	that.printf("%s\n", message)
}

func (that *Input) printf(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintf(that.out, format, args...)
}

func parseAction(line string) (entity.Action, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) != 2 {
		return entity.Action{}, errMalformedMove
	}

	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return entity.Action{}, errMalformedMove
	}

	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return entity.Action{}, errMalformedMove
	}

	action := entity.Action{Row: row, Col: col}
	if !action.IsValid() {
		return entity.Action{}, fmt.Errorf("%w: %s is off the board", apperror.ErrInvalidAction, action)
	}

	return action, nil
}

func formatActions(actions []entity.Action) string {
	parts := make([]string, 0, len(actions))
	for _, action := range actions {
		parts = append(parts, action.String())
	}

	return strings.Join(parts, " ")
}
