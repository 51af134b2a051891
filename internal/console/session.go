package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/23skdu/longbow-fp16/internal/analysis"
	"github.com/23skdu/longbow-fp16/internal/fp16"
)

// Mode selects the conversion direction.
type Mode int

const (
	// ModeEncode converts decimals to hex tokens.
	ModeEncode Mode = iota
	// ModeDecode converts hex tokens to decimals.
	ModeDecode
)

func (m Mode) String() string {
	if m == ModeDecode {
		return "decode"
	}
	return "encode"
}

// ParseMode accepts "encode" or "decode".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encode", "":
		return ModeEncode, nil
	case "decode":
		return ModeDecode, nil
	}
	return ModeEncode, fmt.Errorf("unknown mode %q (want encode or decode)", s)
}

var rule = strings.Repeat("=", 80)

// Session is an interactive prompt loop over a line based input.
type Session struct {
	mode Mode
	in   *bufio.Scanner
	out  io.Writer
}

func NewSession(mode Mode, in io.Reader, out io.Writer) *Session {
	return &Session{
		mode: mode,
		in:   bufio.NewScanner(in),
		out:  out,
	}
}

// Run prompts until the user quits, declines to continue, input ends or ctx
// is cancelled. Invalid lines are reported and prompted for again.
func (s *Session) Run(ctx context.Context) error {
	s.banner()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.prompt()
		line, ok := s.readLine()
		if !ok {
			return s.in.Err()
		}
		if strings.EqualFold(strings.TrimSpace(line), "quit") {
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}

		if err := Convert(s.mode, line, s.out); err != nil {
			log.Debug().Err(err).Str("mode", s.mode.String()).Msg("Rejected input line")
			s.printError(err)
		}

		fmt.Fprint(s.out, "\nWould you like to convert another array? (yes/no): ")
		answer, ok := s.readLine()
		if !ok {
			return s.in.Err()
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "yes", "y":
		default:
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}
	}
}

func (s *Session) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}

func (s *Session) banner() {
	fmt.Fprintln(s.out, rule)
	fmt.Fprintln(s.out, "IEEE 754 16-bit Half-Precision Float Converter")
	if s.mode == ModeDecode {
		fmt.Fprintln(s.out, "FP16 Hexadecimal to Decimal Converter")
	} else {
		fmt.Fprintln(s.out, "Decimal Array to FP16 Hexadecimal Converter")
	}
	fmt.Fprintln(s.out, rule)
}

func (s *Session) prompt() {
	if s.mode == ModeDecode {
		fmt.Fprintln(s.out, "\n--- Input FP16 Hexadecimal Array ---")
		fmt.Fprintln(s.out, "Enter FP16 hex values separated by commas (e.g., 0x0000, 0x3C00, 0xBE00, 0x4200)")
		fmt.Fprintln(s.out, "Or type 'quit' to exit:")
		fmt.Fprint(s.out, "\nEnter FP16 hex array: ")
		return
	}
	fmt.Fprintln(s.out, "\n--- Input Decimal Array ---")
	fmt.Fprintln(s.out, "Enter decimal values separated by commas (e.g., 0.0, 1.5, -2.5, 3.14)")
	fmt.Fprintln(s.out, "Or type 'quit' to exit:")
	fmt.Fprint(s.out, "\nEnter decimal array: ")
}

func (s *Session) printError(err error) {
	if s.mode == ModeDecode {
		fmt.Fprintln(s.out, "\nError: Invalid input. Please enter hex values in format 0xXXXX separated by commas.")
	} else {
		fmt.Fprintln(s.out, "\nError: Invalid input. Please enter numbers separated by commas.")
	}
	fmt.Fprintf(s.out, "Details: %v\n", err)
}

// Convert parses one comma separated line in the given mode and writes the
// results table to out.
func Convert(mode Mode, line string, out io.Writer) error {
	if mode == ModeDecode {
		tokens, bits, err := ParseHex(line)
		if err != nil {
			return err
		}
		writeDecoded(out, tokens, bits, fp16.DecodeBatch(bits))
		return nil
	}

	values, err := ParseDecimals(line)
	if err != nil {
		return err
	}
	writeEncoded(out, values, fp16.ToHexBatch(fp16.EncodeBatch(values)))
	return nil
}

func writeEncoded(out io.Writer, values []float64, hex []string) {
	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "CONVERSION RESULTS")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nInput Decimal Array:    %v\n", values)
	fmt.Fprintf(out, "Output FP16 Hex Array:  %v\n", hex)

	fmt.Fprintln(out, "\n--- Detailed Conversion ---")
	for i, v := range values {
		fmt.Fprintf(out, "  [%d] %12.6f -> %s\n", i, v, hex[i])
	}

	r := analysis.Analyze(values)
	if r.Lossy() {
		fmt.Fprintln(out, "\n--- Precision Loss ---")
		fmt.Fprintf(out, "  inexact: %d/%d  overflow: %d  underflow: %d  subnormal: %d\n",
			r.Inexact, r.Total, r.Overflow, r.Underflow, r.Subnormal)
		fmt.Fprintf(out, "  max abs error: %g  mean abs error: %g  max rel error: %g\n",
			r.MaxAbsError, r.MeanAbsError, r.MaxRelError)
	}
	fmt.Fprintln(out, "\n"+rule)
}

func writeDecoded(out io.Writer, tokens []string, bits []uint16, values []float64) {
	fmt.Fprintln(out, "\n"+rule)
	fmt.Fprintln(out, "CONVERSION RESULTS")
	fmt.Fprintln(out, rule)
	fmt.Fprintf(out, "\nInput FP16 Hex Array:    %v\n", tokens)
	fmt.Fprintf(out, "Output Decimal Array:    %v\n", values)

	fmt.Fprintln(out, "\n--- Detailed Conversion ---")
	for i, tok := range tokens {
		fmt.Fprintf(out, "  [%d] %s -> %12.6f  (%s)\n", i, tok, values[i], fp16.Classify(bits[i]))
	}
	fmt.Fprintln(out, "\n"+rule)
}
