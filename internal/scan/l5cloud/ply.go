package l5cloud

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
)

// plyVertexProps is the vertex layout written by WritePLY and required by
// ReadPLY.
var plyVertexProps = []string{"x", "y", "z", "diffuse_red", "diffuse_green", "diffuse_blue"}

// WritePLY writes c as an ASCII PLY document: a fixed header declaring N
// vertices with float x/y/z and uchar colours, an empty face element, then
// one "x y z r g b" line per point. Coordinates use the shortest decimal form
// that parses back to the same float64.
func WritePLY(w io.Writer, c Cloud) error {
	if len(c.Points) != len(c.Colors) {
		return fmt.Errorf("ply: %d points but %d colors", len(c.Points), len(c.Colors))
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "ply\nformat ascii 1.0\n")
	fmt.Fprintf(bw, "element vertex %d\n", len(c.Points))
	fmt.Fprintf(bw, "property float x\nproperty float y\nproperty float z\n")
	fmt.Fprintf(bw, "property uchar diffuse_red\nproperty uchar diffuse_green\nproperty uchar diffuse_blue\n")
	fmt.Fprintf(bw, "element face 0\nproperty list uchar int vertex_indices\nend_header\n")

	var line []byte
	for i, p := range c.Points {
		col := c.Colors[i]
		line = line[:0]
		line = strconv.AppendFloat(line, p.X, 'g', -1, 64)
		line = append(line, ' ')
		line = strconv.AppendFloat(line, p.Y, 'g', -1, 64)
		line = append(line, ' ')
		line = strconv.AppendFloat(line, p.Z, 'g', -1, 64)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(col.R), 10)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(col.G), 10)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(col.B), 10)
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("ply: write point %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// ReadPLY parses a document produced by WritePLY.
func ReadPLY(r io.Reader) (Cloud, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	next := func() (string, bool) {
		for sc.Scan() {
			lineNo++
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "comment") {
				continue
			}
			return line, true
		}
		return "", false
	}

	if line, ok := next(); !ok || line != "ply" {
		return Cloud{}, fmt.Errorf("ply: missing magic line")
	}
	if line, ok := next(); !ok || line != "format ascii 1.0" {
		return Cloud{}, fmt.Errorf("ply: unsupported format %q", line)
	}

	count := -1
	var props []string
	inVertex := false
	for {
		line, ok := next()
		if !ok {
			return Cloud{}, fmt.Errorf("ply: header not terminated")
		}
		if line == "end_header" {
			break
		}
		f := strings.Fields(line)
		switch {
		case f[0] == "element" && len(f) == 3:
			inVertex = f[1] == "vertex"
			if inVertex {
				n, err := strconv.Atoi(f[2])
				if err != nil || n < 0 {
					return Cloud{}, fmt.Errorf("ply: line %d: bad vertex count %q", lineNo, f[2])
				}
				count = n
			}
		case f[0] == "property" && inVertex && len(f) == 3:
			props = append(props, f[2])
		case f[0] == "property":
			// properties of other elements (faces) are not read
		default:
			return Cloud{}, fmt.Errorf("ply: line %d: unexpected header line %q", lineNo, line)
		}
	}
	if count < 0 {
		return Cloud{}, fmt.Errorf("ply: no vertex element")
	}
	if strings.Join(props, " ") != strings.Join(plyVertexProps, " ") {
		return Cloud{}, fmt.Errorf("ply: unsupported vertex properties %v", props)
	}

	c := Cloud{
		Points: make([]r3.Vector, 0, count),
		Colors: make([]Color, 0, count),
	}
	for len(c.Points) < count {
		line, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return Cloud{}, fmt.Errorf("ply: %w", err)
			}
			return Cloud{}, fmt.Errorf("ply: expected %d vertices, found %d", count, len(c.Points))
		}
		p, col, err := parseVertex(line)
		if err != nil {
			return Cloud{}, fmt.Errorf("ply: line %d: %w", lineNo, err)
		}
		c.Points = append(c.Points, p)
		c.Colors = append(c.Colors, col)
	}
	if err := sc.Err(); err != nil {
		return Cloud{}, fmt.Errorf("ply: %w", err)
	}
	return c, nil
}

func parseVertex(line string) (r3.Vector, Color, error) {
	f := strings.Fields(line)
	if len(f) != 6 {
		return r3.Vector{}, Color{}, fmt.Errorf("expected 6 fields, got %d", len(f))
	}
	var xyz [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return r3.Vector{}, Color{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		xyz[i] = v
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(f[3+i], 10, 8)
		if err != nil {
			return r3.Vector{}, Color{}, fmt.Errorf("color %d: %w", i, err)
		}
		rgb[i] = uint8(v)
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

// ExportPLY writes c to path, replacing any existing file.
func ExportPLY(path string, c Cloud) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ply: %w", err)
	}
	if err := WritePLY(f, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ply: close %s: %w", path, err)
	}
	diagf("exported %d points to %s", c.Len(), path)
	return nil
}
