// main.go - the CLI entry point: a one-shot flag surface for scripted runs,
// falling back to an interactive REPL when invoked with none of them.
//
// Grounded on the teacher's terminal host: raw stdin via golang.org/x/term,
// a background reader goroutine feeding a channel, \r->\n and DEL->BS
// translation, and styled status lines via charmbracelet/lipgloss. The
// flag surface itself is wired through spf13/cobra.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	styleStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func main() {
	var runCycles uint64
	var stepCount uint64
	var dumpSpec string

	root := &cobra.Command{
		Use:          "dsm51emu <hexfile>",
		Short:        "DSM-51 trainer emulator",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(args[0], cmd.Flags().Changed("run"), runCycles, stepCount, dumpSpec)
		},
	}
	root.Flags().Uint64VarP(&runCycles, "run", "r", 0, "run for N cycles (0 = until halted)")
	root.Flags().Uint64VarP(&stepCount, "step", "s", 0, "single-step N instructions")
	root.Flags().StringVarP(&dumpSpec, "dump", "d", "", "dump memory as ADDR:LEN (ADDR in hex, LEN in decimal)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleErr.Render(err.Error()))
		os.Exit(1)
	}
}

func runMain(hexPath string, runGiven bool, runCycles, stepCount uint64, dumpSpec string) error {
	f, err := os.Open(hexPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", hexPath, err)
	}
	defer f.Close()

	eng := NewEngine()
	eng.Diag = func(format string, args ...any) {
		fmt.Fprintln(os.Stderr, styleWarn.Render(fmt.Sprintf(format, args...)))
	}
	eng.SetOutputOptions(true, true)
	eng.out.Write = func(b byte) { os.Stdout.Write([]byte{b}) }

	if err := eng.LoadHex(f); err != nil {
		return fmt.Errorf("loading %s: %w", hexPath, err)
	}

	switch {
	case stepCount > 0:
		for i := uint64(0); i < stepCount; i++ {
			eng.Step()
		}
		printSnapshot(eng)
	case runGiven:
		eng.Run(runCycles)
		printSnapshot(eng)
	case dumpSpec != "":
		return printDump(eng, dumpSpec)
	default:
		return repl(eng)
	}
	return nil
}

func printSnapshot(eng *Engine) {
	fmt.Println(styleStatus.Render(eng.Snapshot().String()))
}

func printDump(eng *Engine, spec string) error {
	addr, n, err := parseDumpSpec(spec)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		fmt.Printf("%04X: %02X\n", addr+uint16(i), eng.readProgram(addr+uint16(i)))
	}
	return nil
}

func parseDumpSpec(spec string) (addr uint16, n int, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("dump spec must be ADDR:LEN, got %q", spec)
	}
	a, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad hex address %q: %w", parts[0], err)
	}
	l, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("bad decimal length %q: %w", parts[1], err)
	}
	return uint16(a), l, nil
}

// repl drives an interactive session: s [n], r [n], p, d <hex> <len>, q.
// Raw terminal mode is used so the REPL does its own echo and line editing
// (backspace); each completed line that is not a REPL command is pushed into
// the engine's input FIFO with a trailing newline, where the guest program's
// WAIT_KEY/WAIT_ENTER/GET_NUM traps can consume it.
func repl(eng *Engine) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err == nil {
			defer term.Restore(fd, old)
		}
	}

	input := make(chan byte, 256)
	go readKeys(os.Stdin, input)

	fmt.Println(styleStatus.Render("dsm51emu ready - s/r/p/d/q"))
	line := make([]byte, 0, 64)
	for b := range input {
		if b == '\r' {
			b = '\n'
		}
		if b == 0x7F {
			b = 0x08
		}
		if b == 0x08 {
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
			continue
		}
		if b == '\n' {
			fmt.Print("\r\n")
			cmdLine := string(line)
			line = line[:0]
			if quit := handleCommand(eng, cmdLine); quit {
				return nil
			}
			continue
		}
		line = append(line, b)
		os.Stdout.Write([]byte{b})
	}
	return nil
}

func readKeys(r *os.File, out chan<- byte) {
	reader := bufio.NewReader(r)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			close(out)
			return
		}
		out <- b
	}
}

func handleCommand(eng *Engine, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "q":
		return true
	case "p":
		printSnapshot(eng)
	case "s":
		n := uint64(1)
		if len(fields) > 1 {
			if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				n = v
			}
		}
		for i := uint64(0); i < n; i++ {
			eng.Step()
		}
		printSnapshot(eng)
	case "r":
		var n uint64
		if len(fields) > 1 {
			if v, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
				n = v
			}
		}
		eng.Run(n)
		printSnapshot(eng)
	case "d":
		if len(fields) < 3 {
			fmt.Println(styleWarn.Render("usage: d <hex-addr> <dec-len>"))
			return false
		}
		if err := printDump(eng, fields[1]+":"+fields[2]); err != nil {
			fmt.Println(styleWarn.Render(err.Error()))
		}
	default:
		eng.PushInput([]byte(line + "\n"))
	}
	return false
}
