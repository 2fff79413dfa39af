// Package solution reads and writes solution files.
//
// The first line names the instance. Each following line is one pairing:
// "k" is the work activity with 1-based index k, "k_D" its deadhead variant
// and "L" separates the duties of the pairing.
package solution

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kilianp07/cspbc/core/instance"
	"github.com/kilianp07/cspbc/core/model"
)

const (
	layoverToken   = "L"
	deadheadSuffix = "_D"
)

// ErrFormat is wrapped by every ParseError.
var ErrFormat = errors.New("malformed solution file")

// ParseError locates a format problem in a solution file.
type ParseError struct {
	Line  int
	Token string
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("solution line %d token %q: %s", e.Line, e.Token, e.Msg)
	}
	return fmt.Sprintf("solution line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrFormat }

// Read parses a solution from r. The instance named on the first line is
// resolved through loader and returned along with the solution.
func Read(r io.Reader, loader instance.Loader) (model.Solution, *instance.Instance, error) {
	br := bufio.NewReader(r)
	header, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return model.Solution{}, nil, err
	}
	name := strings.TrimSpace(header)
	if name == "" {
		return model.Solution{}, nil, &ParseError{Line: 1, Msg: "missing instance name"}
	}
	inst, err := loader.Load(name)
	if err != nil {
		return model.Solution{}, nil, fmt.Errorf("load instance %s: %w", name, err)
	}
	sol, err := decodePairings(br, inst, 2)
	if err != nil {
		return model.Solution{}, nil, err
	}
	sol.InstanceName = name
	return sol, inst, nil
}

// ReadFile opens path and calls Read.
func ReadFile(path string, loader instance.Loader) (model.Solution, *instance.Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Solution{}, nil, err
	}
	defer func() { _ = f.Close() }()
	return Read(f, loader)
}

// Decode parses pairing lines (without the header) against inst.
func Decode(r io.Reader, inst *instance.Instance) (model.Solution, error) {
	sol, err := decodePairings(r, inst, 1)
	if err != nil {
		return model.Solution{}, err
	}
	sol.InstanceName = inst.Name
	return sol, nil
}

func decodePairings(r io.Reader, inst *instance.Instance, firstLine int) (model.Solution, error) {
	var sol model.Solution
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := firstLine - 1
	for sc.Scan() {
		line++
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			continue
		}
		p, err := decodePairing(tokens, inst, line)
		if err != nil {
			return sol, err
		}
		sol.Pairings = append(sol.Pairings, p)
	}
	if err := sc.Err(); err != nil {
		return sol, err
	}
	return sol, nil
}

func decodePairing(tokens []string, inst *instance.Instance, line int) (model.Pairing, error) {
	var pairing model.Pairing
	var duty model.Duty
	for _, tok := range tokens {
		if tok == layoverToken {
			pairing = append(pairing, duty)
			duty = nil
			continue
		}
		act, err := decodeActivity(tok, inst)
		if err != nil {
			return nil, &ParseError{Line: line, Token: tok, Msg: err.Error()}
		}
		duty = append(duty, act)
	}
	return append(pairing, duty), nil
}

func decodeActivity(tok string, inst *instance.Instance) (model.Activity, error) {
	deadhead := strings.HasSuffix(tok, deadheadSuffix)
	num := strings.TrimSuffix(tok, deadheadSuffix)
	if num == "" || strings.TrimLeft(num, "0123456789") != "" {
		return model.Activity{}, errors.New("not an activity reference")
	}
	id, err := strconv.Atoi(num)
	if err != nil {
		return model.Activity{}, err
	}
	if deadhead {
		return inst.DeadheadActivity(id - 1)
	}
	return inst.WorkActivity(id - 1)
}

// Write encodes sol for inst in the solution file format.
func Write(w io.Writer, inst *instance.Instance, sol model.Solution) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, inst.Name); err != nil {
		return err
	}
	for _, p := range sol.Pairings {
		if _, err := fmt.Fprintln(bw, EncodePairing(p)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodePairing renders one pairing line.
func EncodePairing(p model.Pairing) string {
	var tokens []string
	for k, duty := range p {
		if k > 0 {
			tokens = append(tokens, layoverToken)
		}
		for _, a := range duty {
			tok := strconv.Itoa(a.Index + 1)
			if !a.IsWork() {
				tok += deadheadSuffix
			}
			tokens = append(tokens, tok)
		}
	}
	return strings.Join(tokens, " ")
}

// WriteFile writes sol to path, or to DefaultFileName(inst) when path is empty.
// It returns the path written.
func WriteFile(path string, inst *instance.Instance, sol model.Solution) (string, error) {
	if path == "" {
		path = DefaultFileName(inst)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(f, inst, sol); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}

// DefaultFileName is "<instance>_sol.txt".
func DefaultFileName(inst *instance.Instance) string {
	return inst.Name + "_sol.txt"
}
