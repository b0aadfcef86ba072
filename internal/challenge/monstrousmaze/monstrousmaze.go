// Package monstrousmaze implements the MonstrousMaze engine from spec.md
// §4.4: a depth-first search over a fixed grid, exploring up, down, left,
// right in that order, consuming one point of endurance per step taken on
// a monster cell. Ported from
// original_source/monstrous_maze/src/challenge_resolve.rs, which walks
// the same four directions in the same order and bails out the instant
// endurance hits zero.
package monstrousmaze

import (
	"fmt"
	"math/rand"
	"strings"

	"crab.casa/puzzle-tournament/internal/ptserr"
)

const (
	playerToken  = 'I'
	exitToken    = 'X'
	wallToken    = '#'
	monsterToken = 'M'
	freeToken    = ' '
)

// Instance is one MonstrousMaze challenge's input (spec.md §3).
type Instance struct {
	Grid      string
	Endurance int
}

type position struct{ x, y int }

type grid struct {
	rows   []string
	height int
	width  int
}

// Solve returns the move string (composed of '^', 'v', '<', '>') that
// walks the player from its start cell to the exit without exhausting
// endurance, exploring up/down/left/right in that fixed order at each
// step so the result is deterministic.
func Solve(input Instance) (string, error) {
	g, start, target, err := parse(input.Grid)
	if err != nil {
		return "", err
	}

	s := &searcher{grid: g, target: target}
	path, ok := s.find(start, input.Endurance, "", map[position]bool{})
	if !ok {
		return "", ptserr.ErrNoSolution
	}
	return path, nil
}

type searcher struct {
	grid   grid
	target position
}

func (s *searcher) find(player position, endurance int, path string, visited map[position]bool) (string, bool) {
	if player == s.target {
		return path, true
	}

	if s.grid.at(player) == monsterToken {
		endurance--
	}
	if endurance <= 0 {
		return "", false
	}

	nextVisited := make(map[position]bool, len(visited)+1)
	for k := range visited {
		nextVisited[k] = true
	}
	nextVisited[player] = true

	moves := []struct {
		delta position
		token byte
	}{
		{position{0, -1}, '^'},
		{position{0, 1}, 'v'},
		{position{-1, 0}, '<'},
		{position{1, 0}, '>'},
	}

	for _, m := range moves {
		next := position{player.x + m.delta.x, player.y + m.delta.y}
		if !s.grid.canEnter(next, nextVisited) {
			continue
		}
		if result, ok := s.find(next, endurance, path+string(m.token), nextVisited); ok {
			return result, true
		}
	}
	return "", false
}

func (g grid) at(p position) byte {
	return g.rows[p.y][p.x]
}

func (g grid) canEnter(p position, visited map[position]bool) bool {
	if p.x < 0 || p.x >= g.width || p.y < 0 || p.y >= g.height {
		return false
	}
	if g.at(p) == wallToken {
		return false
	}
	return !visited[p]
}

func parse(rawGrid string) (grid, position, position, error) {
	rows := strings.Split(rawGrid, "\n")
	if len(rows) == 0 {
		return grid{}, position{}, position{}, fmt.Errorf("monstrousmaze: empty grid")
	}

	g := grid{rows: rows, height: len(rows), width: len(rows[0])}

	player, ok := findToken(g, playerToken)
	if !ok {
		return grid{}, position{}, position{}, fmt.Errorf("monstrousmaze: no player token %q in grid", string(playerToken))
	}
	target, ok := findToken(g, exitToken)
	if !ok {
		return grid{}, position{}, position{}, fmt.Errorf("monstrousmaze: no exit token %q in grid", string(exitToken))
	}
	return g, player, target, nil
}

func findToken(g grid, token byte) (position, bool) {
	for y, row := range g.rows {
		for x := 0; x < len(row); x++ {
			if row[x] == token {
				return position{x, y}, true
			}
		}
	}
	return position{}, false
}

// Validate replays moves against the grid per spec.md §4.4's path
// validator: every move must stay in bounds, never cross a wall, never
// revisit an already-visited cell, and the walk must end exactly on the
// exit cell with remaining endurance greater than zero throughout. The
// visited set mirrors the one Solve's searcher.find threads through
// canEnter — a path that loops back through a free cell it already stood
// on is just as forbidden here as it is during the search.
func Validate(input Instance, moves string) bool {
	g, start, target, err := parse(input.Grid)
	if err != nil {
		return false
	}

	player := start
	endurance := input.Endurance
	if g.at(player) == monsterToken {
		endurance--
	}
	if endurance <= 0 {
		return false
	}

	visited := map[position]bool{player: true}

	for _, m := range moves {
		delta, ok := deltaFor(m)
		if !ok {
			return false
		}
		next := position{player.x + delta.x, player.y + delta.y}
		if !g.canEnter(next, visited) {
			return false
		}
		player = next
		visited[player] = true
		if g.at(player) == monsterToken {
			endurance--
		}
		if endurance <= 0 {
			return false
		}
	}
	return player == target
}

func deltaFor(move rune) (position, bool) {
	switch move {
	case '^':
		return position{0, -1}, true
	case 'v':
		return position{0, 1}, true
	case '<':
		return position{-1, 0}, true
	case '>':
		return position{1, 0}, true
	default:
		return position{}, false
	}
}

// Generate produces a random practice maze, supplementing spec.md from
// original_source/monstrous_maze/src/challenge_generator.rs: a
// rectangular grid bordered by walls, a random sprinkling of interior
// walls and monsters, with the player placed at the top-left free cell
// and the exit at the bottom-right free cell.
func Generate(width, height int, rng *rand.Rand) Instance {
	if width < 4 {
		width = 4
	}
	if height < 4 {
		height = 4
	}

	cells := make([][]byte, height)
	for y := range cells {
		cells[y] = make([]byte, width)
		for x := range cells[y] {
			switch {
			case x == 0 || y == 0 || x == width-1 || y == height-1:
				cells[y][x] = wallToken
			case rng.Intn(5) == 0:
				cells[y][x] = wallToken
			case rng.Intn(6) == 0:
				cells[y][x] = monsterToken
			default:
				cells[y][x] = freeToken
			}
		}
	}
	cells[1][1] = playerToken
	cells[height-2][width-2] = exitToken

	rows := make([]string, height)
	for y, row := range cells {
		rows[y] = string(row)
	}
	return Instance{Grid: strings.Join(rows, "\n"), Endurance: 2}
}

// GenerateFromCatalog picks a uniformly random grid out of grids and pairs
// it with a random endurance in spec.md §3's [2,4] invariant, for a server
// configured with a loaded maze catalog instead of procedural generation.
// Callers must not pass an empty grids slice.
func GenerateFromCatalog(grids []string, rng *rand.Rand) Instance {
	return Instance{
		Grid:      grids[rng.Intn(len(grids))],
		Endurance: 2 + rng.Intn(3),
	}
}
