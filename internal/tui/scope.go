// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"sync"

	"codeclab/internal/visual"
)

const (
	dotRune  = '•'
	lineRune = '│'
)

// Scope draws sampler traces into a character grid. It is the sampler's
// Renderer and Surface: the UI sets the container size, the sampler
// resizes the grid and renders into it on the engine goroutine.
type Scope struct {
	mu       sync.Mutex
	boxW     int // container
	boxH     int
	grid     [][]rune
	color    string
	rendered bool
}

var (
	_ visual.Renderer = (*Scope)(nil)
	_ visual.Surface  = (*Scope)(nil)
)

// NewScope creates a scope for a width x height cell container.
func NewScope(width, height int) *Scope {
	return &Scope{boxW: width, boxH: height}
}

// SetSize sets the container size.
func (s *Scope) SetSize(width, height int) {
	s.mu.Lock()
	s.boxW, s.boxH = max(width, 1), max(height, 1)
	s.mu.Unlock()
}

// Size implements visual.Surface.
func (s *Scope) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boxW, s.boxH
}

// Resize implements visual.Renderer.
func (s *Scope) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = make([][]rune, max(height, 0))
	for y := range s.grid {
		s.grid[y] = make([]rune, max(width, 0))
	}
	s.clearLocked()
}

// Render implements visual.Renderer.
func (s *Scope) Render(trace visual.Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.grid) == 0 || len(s.grid[0]) == 0 {
		return
	}
	s.clearLocked()
	h, w := len(s.grid), len(s.grid[0])

	prevY := -1
	for _, p := range trace.Points {
		x := clamp(int(p.X), 0, w-1)
		y := clamp(int(p.Y), 0, h-1)
		if prevY >= 0 {
			fill(s.grid, x, prevY, y)
		}
		s.grid[y][x] = dotRune
		prevY = y
	}
	s.color = trace.Color
	s.rendered = true
}

// Rendered reports whether a trace was drawn since the last Clear.
func (s *Scope) Rendered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

// Clear blanks the grid.
func (s *Scope) Clear() {
	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
}

// Lines returns the grid rows and the trace color.
func (s *Scope) Lines() ([]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.grid))
	for y, row := range s.grid {
		out[y] = string(row)
	}
	return out, s.color
}

// View renders the grid in the trace color.
func (s *Scope) View() string {
	lines, color := s.Lines()
	return accent(color).Render(strings.Join(lines, "\n"))
}

func (s *Scope) clearLocked() {
	for _, row := range s.grid {
		for x := range row {
			row[x] = ' '
		}
	}
	s.rendered = false
}

// fill draws a vertical segment strictly between y0 and y1 in column x.
func fill(grid [][]rune, x, y0, y1 int) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0 + 1; y < y1; y++ {
		if grid[y][x] != dotRune {
			grid[y][x] = lineRune
		}
	}
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
