package file

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// NumPy .npy layout: magic, version, little-endian header length, then an
// ASCII dict header padded with spaces and a trailing newline.
var npyMagic = []byte("\x93NUMPY")

const npyAlign = 64

var (
	descrPattern   = regexp.MustCompile(`'descr'\s*:\s*'([^']*)'`)
	fortranPattern = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapePattern   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

var errNpy = errors.New("invalid npy matrix")

// writeMatrix writes rows as a version 1.0 little-endian float32 C-order matrix.
func writeMatrix(w io.Writer, rows [][]float32) error {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", len(rows), cols)
	// magic(6) + version(2) + length(2) + header + '\n' must be a multiple of npyAlign.
	pad := npyAlign - (len(npyMagic)+4+len(header)+1)%npyAlign
	if pad == npyAlign {
		pad = 0
	}
	header += strings.Repeat(" ", pad) + "\n"

	bw := bufio.NewWriter(w)
	bw.Write(npyMagic)
	bw.Write([]byte{1, 0})
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(header)))
	bw.Write(hlen[:])
	bw.WriteString(header)

	var buf [4]byte
	for i, row := range rows {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", errNpy, i, len(row), cols)
		}
		for _, x := range row {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(x))
			bw.Write(buf[:])
		}
	}
	return bw.Flush()
}

// readMatrix reads a 2-D little-endian float32 or float64 C-order matrix.
func readMatrix(r io.Reader) ([][]float32, error) {
	br := bufio.NewReader(r)

	prefix := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(br, prefix); err != nil {
		return nil, fmt.Errorf("%w: %w", errNpy, err)
	}
	if !bytes.Equal(prefix[:len(npyMagic)], npyMagic) {
		return nil, fmt.Errorf("%w: bad magic", errNpy)
	}

	var headerLen int
	switch major := prefix[len(npyMagic)]; major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", errNpy, err)
		}
		headerLen = int(binary.LittleEndian.Uint16(b[:]))
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return nil, fmt.Errorf("%w: %w", errNpy, err)
		}
		headerLen = int(binary.LittleEndian.Uint32(b[:]))
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", errNpy, major)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: header: %w", errNpy, err)
	}
	descr, rows, cols, err := parseHeader(string(header))
	if err != nil {
		return nil, err
	}

	width := 4
	if descr == "<f8" {
		width = 8
	}
	out := make([][]float32, rows)
	buf := make([]byte, cols*width)
	for i := range out {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", errNpy, i, err)
		}
		row := make([]float32, cols)
		for j := range row {
			if width == 4 {
				row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
			} else {
				row[j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[j*8:])))
			}
		}
		out[i] = row
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after %d rows", errNpy, rows)
	}
	return out, nil
}

func parseHeader(h string) (descr string, rows, cols int, err error) {
	m := descrPattern.FindStringSubmatch(h)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: header has no descr", errNpy)
	}
	descr = m[1]
	if descr != "<f4" && descr != "<f8" {
		return "", 0, 0, fmt.Errorf("%w: unsupported dtype %s", errNpy, descr)
	}

	if m := fortranPattern.FindStringSubmatch(h); m == nil || m[1] != "False" {
		return "", 0, 0, fmt.Errorf("%w: only C-order matrices are supported", errNpy)
	}

	m = shapePattern.FindStringSubmatch(h)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: header has no shape", errNpy)
	}
	var dims []int
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return "", 0, 0, fmt.Errorf("%w: bad shape %q", errNpy, m[1])
		}
		dims = append(dims, n)
	}
	if len(dims) != 2 {
		return "", 0, 0, fmt.Errorf("%w: want a 2-D matrix, got shape (%s)", errNpy, m[1])
	}
	return descr, dims[0], dims[1], nil
}
