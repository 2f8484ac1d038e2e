// Package bgn reads and writes board gem notation, the textual form a
// position travels in: rows of gem runes joined by "/", digit runs for
// consecutive empty cells, then optional opcodes ("gen 2; seed 991;").
// It is the format used by the shell, the bot, replay logs and test
// fixtures.
package bgn

import (
	"bufio"
	"errors"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/gem"
)

// ParsedBGN is a decoded position plus its opcodes. Seed and ID are
// the decoded forms of their opcodes; Opcodes records which ones were
// actually present.
type ParsedBGN struct {
	State   *board.State
	Seed    int64
	ID      string
	Opcodes map[string]string
}

// Parse decodes one notation string. The board text is validated the
// same way a grid handed over the vision boundary is; unknown opcodes
// are skipped so newer writers stay readable.
func Parse(bgnstr string) (*ParsedBGN, error) {
	bgnstr = strings.TrimSpace(bgnstr)
	if bgnstr == "" {
		return nil, errors.New("empty notation string")
	}
	fields := strings.SplitN(bgnstr, " ", 2)

	rows := strings.Split(fields[0], "/")
	grid := make([][]gem.Gem, len(rows))
	for i, row := range rows {
		gems, err := rowToGems(row)
		if err != nil {
			return nil, err
		}
		grid[i] = gems
	}
	st, err := board.New(grid)
	if err != nil {
		return nil, err
	}

	p := &ParsedBGN{Opcodes: map[string]string{}}
	if len(fields) == 2 {
		for _, op := range strings.Split(fields[1], ";") {
			op := strings.TrimSpace(op)
			if len(op) == 0 {
				continue
			}
			opWithParams := strings.SplitN(op, " ", 2)
			switch opWithParams[0] {
			case "gen":
				if len(opWithParams) != 2 {
					return nil, errors.New("wrong number of arguments for gen operation")
				}
				gen, err := strconv.ParseUint(opWithParams[1], 10, 64)
				if err != nil {
					return nil, err
				}
				st = st.WithGeneration(gen)
				p.Opcodes["gen"] = opWithParams[1]
			case "seed":
				if len(opWithParams) != 2 {
					return nil, errors.New("wrong number of arguments for seed operation")
				}
				seed, err := strconv.ParseInt(opWithParams[1], 10, 64)
				if err != nil {
					return nil, err
				}
				p.Seed = seed
				p.Opcodes["seed"] = opWithParams[1]
			case "id":
				if len(opWithParams) != 2 {
					return nil, errors.New("wrong number of arguments for id operation")
				}
				p.ID = opWithParams[1]
				p.Opcodes["id"] = opWithParams[1]
			}
		}
	}
	p.State = st
	return p, nil
}

func rowToGems(row string) ([]gem.Gem, error) {
	var gems []gem.Gem
	lastN := ""
	flush := func() error {
		if lastN == "" {
			return nil
		}
		n, err := strconv.Atoi(lastN)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			gems = append(gems, gem.Empty)
		}
		lastN = ""
		return nil
	}
	for _, rn := range row {
		if rn >= '0' && rn <= '9' {
			lastN += string(rn)
			continue
		}
		if err := flush(); err != nil {
			return nil, err
		}
		g, err := gem.FromRune(rn)
		if err != nil {
			return nil, err
		}
		gems = append(gems, g)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return gems, nil
}

// Emit renders st back into notation form. The generation comes from
// the state itself; seed and id come from opcodes when present.
// Opcodes are emitted in a fixed order so identical positions always
// produce identical text.
func Emit(st *board.State, opcodes map[string]string) string {
	var sb strings.Builder
	rows, cols := st.Dims()
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		run := 0
		for c := 0; c < cols; c++ {
			g := st.GemAt(r, c)
			if g == gem.Empty {
				run++
				continue
			}
			if run > 0 {
				sb.WriteString(strconv.Itoa(run))
				run = 0
			}
			sb.WriteRune(g.Rune())
		}
		if run > 0 {
			sb.WriteString(strconv.Itoa(run))
		}
	}
	writeOp := func(key, val string) {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteByte(' ')
		sb.WriteString(val)
		sb.WriteByte(';')
	}
	if st.Generation() != 0 {
		writeOp("gen", strconv.FormatUint(st.Generation(), 10))
	}
	if v, ok := opcodes["seed"]; ok {
		writeOp("seed", v)
	}
	if v, ok := opcodes["id"]; ok {
		writeOp("id", v)
	}
	return sb.String()
}

var encodingPragma = regexp.MustCompile(`^#enc\s+(\S+)`)

// ParseReader decodes every position in a .bgn stream, one per line.
// Lines starting with "#" are comments. A first-line "#enc latin1"
// pragma switches decoding to ISO 8859-1; the default is UTF-8.
func ParseReader(r io.Reader) ([]*ParsedBGN, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, err
	}
	first = strings.TrimSpace(first)

	var scanner *bufio.Scanner
	pending := ""
	if m := encodingPragma.FindStringSubmatch(first); m != nil {
		switch strings.ToLower(m[1]) {
		case "latin1", "iso-8859-1":
			scanner = bufio.NewScanner(transform.NewReader(br, charmap.ISO8859_1.NewDecoder()))
		case "utf8", "utf-8":
			scanner = bufio.NewScanner(br)
		default:
			return nil, errors.New("unhandled character encoding " + m[1])
		}
	} else {
		scanner = bufio.NewScanner(br)
		pending = first
	}

	var positions []*ParsedBGN
	handle := func(line string) error {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			return nil
		}
		p, err := Parse(line)
		if err != nil {
			return err
		}
		positions = append(positions, p)
		return nil
	}
	if err := handle(pending); err != nil {
		return nil, err
	}
	for scanner.Scan() {
		if err := handle(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return positions, nil
}

// ParseFile reads a .bgn file from disk.
func ParseFile(filename string) ([]*ParsedBGN, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseReader(f)
}
