// Package logo renders the animated "ecs.h" grid logo in a terminal.
package logo

import (
	"context"
	"io"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrInvalidDelay is returned by Animate for a non-positive frame delay.
var ErrInvalidDelay = eris.New("frame delay must be positive")

const (
	Rows = 4
	Cols = 4

	Header  = "   ecs.h"
	Charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

	// ClearScreen moves the cursor home and clears the terminal.
	ClearScreen = "\033[H\033[J"

	DefaultDelay = 40 * time.Millisecond
)

// Generator fills the grid one cell per frame, cycling a cursor through the
// cells in row-major order.
type Generator struct {
	grid [Rows][Cols]byte
	pos  int
	pick func(n int) int
}

// New returns a generator with an empty grid. The same seed always produces
// the same frames.
func New(seed uint64) *Generator {
	rng := rand.New(rand.NewPCG(seed, seed))
	g := &Generator{pick: rng.IntN}
	for i := range g.grid {
		for j := range g.grid[i] {
			g.grid[i][j] = ' '
		}
	}
	return g
}

// Next writes a random character into the cell under the cursor, renders
// the frame with the cursor hiding that cell and advances the cursor.
func (g *Generator) Next() string {
	g.grid[g.pos/Cols][g.pos%Cols] = Charset[g.pick(len(Charset))]
	frame := g.render()
	g.pos = (g.pos + 1) % (Rows * Cols)
	return frame
}

func (g *Generator) render() string {
	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')
	index := 0
	for i := range g.grid {
		for j := range g.grid[i] {
			sb.WriteByte('[')
			if index == g.pos {
				sb.WriteByte('_')
			} else {
				sb.WriteByte(g.grid[i][j])
			}
			sb.WriteByte(']')
			index++
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Animate writes frames to w, pausing delay between them and clearing the
// screen before each new frame. frames <= 0 runs until ctx is done.
func Animate(ctx context.Context, w io.Writer, g *Generator, frames int, delay time.Duration) error {
	if delay <= 0 {
		return eris.Wrapf(ErrInvalidDelay, "animate: delay %s", delay)
	}
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for n := 0; frames <= 0 || n < frames; n++ {
		if n > 0 {
			if _, err := io.WriteString(w, ClearScreen); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, g.Next()); err != nil {
			return err
		}
		if frames > 0 && n == frames-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
