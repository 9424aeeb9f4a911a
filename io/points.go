// Package io implements the engine's two file-format boundaries (spec §6):
// reading an oriented point cloud (position + unit normal per line) and
// writing the reconstructed mesh as ASCII PLY. Point-file parsing, PLY
// writing and CLI parsing sit outside the core algorithm's budget, but the
// repository as a whole still needs them, built the way the teacher builds
// equivalent file-format code (plain bufio scanning, sentinel errors, no
// framework).
package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jdigne/ballpivot/geom"
	"github.com/jdigne/ballpivot/mesh"
)

// ErrInput is returned when a point-file source cannot be read at all
// (as opposed to individual malformed lines, which are skipped with a
// warning rather than failing the whole read, spec §6/§7).
var ErrInput = errors.New("ballpivot/io: could not read point file")

// ErrOutput is returned when writing a PLY mesh fails.
var ErrOutput = errors.New("ballpivot/io: could not write mesh file")

// ReadPoints parses an oriented point cloud: one point per line, six
// whitespace-separated floats (x y z nx ny nz), '#'-prefixed comment lines
// and blank lines ignored. A line that isn't blank/comment but doesn't
// parse into exactly six floats is skipped and reported to warn (if
// non-nil) rather than aborting the read. This is deliberately permissive
// (spec §6's (ADDED) resolution, following FileIO.h's forgiving style).
func ReadPoints(r io.Reader, warn func(string)) ([]mesh.Vertex, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var verts []mesh.Vertex
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		v, ok := parsePointLine(line)
		if !ok {
			if warn != nil {
				warn("ballpivot: skipping malformed point line " + strconv.Itoa(lineNo))
			}
			continue
		}
		verts = append(verts, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	return verts, nil
}

func parsePointLine(line string) (mesh.Vertex, bool) {
	fields := strings.Fields(line)
	if len(fields) != 6 {
		return mesh.Vertex{}, false
	}
	var vals [6]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return mesh.Vertex{}, false
		}
		vals[i] = x
	}
	pos := geom.Point{X: vals[0], Y: vals[1], Z: vals[2]}
	n, ok := geom.Normalize(geom.Point{X: vals[3], Y: vals[4], Z: vals[5]})
	if !ok {
		return mesh.Vertex{}, false
	}
	return mesh.NewVertex(pos, n), true
}
