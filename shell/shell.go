// Package shell is a line-oriented command interpreter over a flatstore.Store.
//
// Each input line is a command: a case-insensitive name followed by
// arguments. UPDATE reads the new content from the lines that follow,
// up to a line that is just ".".
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kjk/pseudofs/flatstore"
	"github.com/kjk/pseudofs/log"
)

const Usage = `Commands:
  SELECT <path>
  INSERT <path>
  UPDATE <path>
       (end input with a line containing only '.')
  DELETE <path>
  CRYPTO <path> <key>
  DECRYPTO <path> <key>
  COUNT
  RENAME <oldPath> <newPath>
  LIST
  DIFF <path1> <path2>
  SAVE
  EXIT
`

type Shell struct {
	Store *flatstore.Store
	In    io.Reader
	Out   io.Writer
	// container written by SAVE, SAVE is refused if empty
	Path string
	// printed before reading each command, can be empty
	Prompt string

	r    *bufio.Reader
	done bool
}

func New(store *flatstore.Store, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		Store:  store,
		In:     in,
		Out:    out,
		Prompt: "> ",
	}
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.Out, format, args...)
}

func (sh *Shell) println(s string) {
	fmt.Fprintln(sh.Out, s)
}

// readLine returns the next line including the line terminator.
// io.EOF is only returned when there's nothing left.
func (sh *Shell) readLine() (string, error) {
	if sh.r == nil {
		sh.r = bufio.NewReader(sh.In)
	}
	line, err := sh.r.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}

// Run executes commands until EXIT or end of input.
// The only error returned is failure to read input.
func (sh *Shell) Run() error {
	sh.done = false
	for !sh.done {
		if sh.Prompt != "" {
			sh.printf("%s", sh.Prompt)
		}
		line, err := sh.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("shell: read failed: %w", err)
		}
		if err = sh.Exec(line); err != nil {
			return err
		}
	}
	return nil
}

// splitCommand returns upper-cased command name and the rest of the line
func splitCommand(line string) (string, string) {
	line = strings.TrimRight(line, "\r\n")
	line = strings.TrimLeft(line, " ")
	name, rest, _ := strings.Cut(line, " ")
	return strings.ToUpper(name), rest
}

// splitTwo splits "<first> <rest of line>", both must be non-empty
func splitTwo(args string) (string, string, bool) {
	args = strings.TrimLeft(args, " ")
	first, second, _ := strings.Cut(args, " ")
	if first == "" || second == "" {
		return "", "", false
	}
	return first, second, true
}

// Exec executes a single command line
func (sh *Shell) Exec(line string) error {
	name, args := splitCommand(line)
	if name == "" {
		return nil
	}
	timeStart := time.Now()
	ok := true
	path := args
	var err error
	switch name {
	case "HELP":
		sh.printf("%s", Usage)
	case "EXIT":
		sh.done = true
	case "SELECT":
		ok = sh.selectCmd(args)
	case "INSERT":
		ok = sh.insertCmd(args)
	case "UPDATE":
		ok, err = sh.updateCmd(args)
	case "DELETE":
		ok = sh.deleteCmd(args)
	case "CRYPTO", "DECRYPTO":
		path, ok = sh.xorCmd(name, args)
	case "COUNT":
		sh.println(strconv.Itoa(sh.Store.Count()))
	case "RENAME":
		path, ok = sh.renameCmd(args)
	case "LIST":
		for _, p := range sh.Store.Paths() {
			sh.println(p)
		}
	case "DIFF":
		path, ok = sh.diffCmd(args)
	case "SAVE":
		ok = sh.saveCmd()
	default:
		sh.println("unknown command")
		ok = false
	}
	log.Verbosef("shell: %s '%s' ok: %v\n", name, path, ok)
	log.EventWithDuration("cmd", time.Since(timeStart), "name", name, "path", path, "ok", ok)
	return err
}

func (sh *Shell) needPath(path string) bool {
	if path == "" {
		sh.println("path required")
		return false
	}
	return true
}

func (sh *Shell) selectCmd(path string) bool {
	if !sh.needPath(path) {
		return false
	}
	d, err := sh.Store.Select(path)
	if err != nil {
		sh.printf("file '%s' not found\n", path)
		return false
	}
	sh.printf("%s\n", d)
	return true
}

func (sh *Shell) insertCmd(path string) bool {
	if !sh.needPath(path) {
		return false
	}
	if err := sh.Store.Insert(path); err != nil {
		sh.println("file already exists")
		return false
	}
	sh.println("done")
	return true
}

// readContent reads lines up to "." line or end of input
func (sh *Shell) readContent() ([]byte, error) {
	var buf []byte
	for {
		line, err := sh.readLine()
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, fmt.Errorf("shell: read failed: %w", err)
		}
		if line == ".\n" || line == ".\r\n" {
			return buf, nil
		}
		buf = append(buf, line...)
	}
}

func (sh *Shell) updateCmd(path string) (bool, error) {
	if !sh.needPath(path) {
		return false, nil
	}
	sh.println("enter new content (a line with only '.' ends input):")
	d, err := sh.readContent()
	if err != nil {
		return false, err
	}
	if err = sh.Store.Update(path, d); err != nil {
		sh.println("file not found")
		return false, nil
	}
	sh.println("overwritten")
	return true, nil
}

func (sh *Shell) deleteCmd(path string) bool {
	if !sh.needPath(path) {
		return false
	}
	if err := sh.Store.Delete(path); err != nil {
		sh.println("file not found")
		return false
	}
	sh.println("deleted")
	return true
}

func (sh *Shell) xorCmd(name string, args string) (string, bool) {
	path, key, ok := splitTwo(args)
	if !ok {
		sh.printf("usage: %s <path> <key>\n", name)
		return "", false
	}
	var err error
	if name == "CRYPTO" {
		err = sh.Store.Crypto(path, []byte(key))
	} else {
		err = sh.Store.Decrypto(path, []byte(key))
	}
	if err != nil {
		sh.printf("error: %s\n", err)
		return path, false
	}
	if name == "CRYPTO" {
		sh.println("encrypted")
	} else {
		sh.println("decrypted")
	}
	return path, true
}

func (sh *Shell) renameCmd(args string) (string, bool) {
	oldPath, newPath, ok := splitTwo(args)
	if !ok {
		sh.println("usage: RENAME <old> <new>")
		return "", false
	}
	err := sh.Store.Rename(oldPath, newPath)
	switch {
	case err == nil:
		sh.println("renamed")
		return oldPath, true
	case errors.Is(err, flatstore.ErrTargetExists):
		sh.println("file with that name already exists")
	default:
		sh.println("file not found")
	}
	return oldPath, false
}

func (sh *Shell) diffCmd(args string) (string, bool) {
	path1, path2, ok := splitTwo(args)
	if !ok {
		sh.println("usage: DIFF <path1> <path2>")
		return "", false
	}
	a, err := sh.Store.Select(path1)
	if err != nil {
		sh.printf("file '%s' not found\n", path1)
		return path1, false
	}
	b, err := sh.Store.Select(path2)
	if err != nil {
		sh.printf("file '%s' not found\n", path2)
		return path1, false
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: path1,
		ToFile:   path2,
		Context:  3,
	}
	s, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		sh.printf("error: %s\n", err)
		return path1, false
	}
	if s == "" {
		sh.println("files are identical")
		return path1, true
	}
	sh.printf("%s", s)
	if !strings.HasSuffix(s, "\n") {
		sh.println("")
	}
	return path1, true
}

func (sh *Shell) saveCmd() bool {
	if sh.Path == "" {
		sh.println("no container to save to")
		return false
	}
	err := sh.Store.Save(sh.Path)
	if log.IfErrf(err, "shell: Save('%s') failed with '%s'\n", sh.Path, err) {
		sh.printf("error: %s\n", err)
		return false
	}
	sh.println("saved")
	return true
}
