package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/rocketscienceinc/tictactoe-qlearning/internal/entity"
)

// Renderer prints every board it is shown as a text grid.
type Renderer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

func (that *Renderer) Render(board entity.Board) {
	that.mu.Lock()
	defer that.mu.Unlock()

	fmt.Fprintln(that.out, board.String())
}
