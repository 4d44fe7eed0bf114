package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const (
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
)

var (
	errMismatch = errors.New("passwords do not match")
	errTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	errTooLong  = fmt.Errorf("password must not exceed %d characters", maxPasswordLength)
	errNoHash   = errors.New("BROWSE_PASSWORD_HASH is not set")
)

// passwordReader prompts for and returns one password.
type passwordReader func(prompt string) ([]byte, error)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	read := newPasswordReader(os.Stdin, os.Stderr)

	var err error
	switch os.Args[1] {
	case "hash":
		err = hashPassword(read, os.Stdout, bcrypt.DefaultCost)
	case "verify":
		err = verifyPassword(read, os.Stdout, os.Getenv("BROWSE_PASSWORD_HASH"))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(os.Args[1]))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand replaces every character outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Video Streamer Browse Password Tool")
	fmt.Println("")
	fmt.Println("Usage: hashpw <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  hash    - Print a bcrypt hash for BROWSE_PASSWORD_HASH")
	fmt.Println("  verify  - Check a password against BROWSE_PASSWORD_HASH")
}

// newPasswordReader reads without echo from a terminal, or line by line otherwise.
func newPasswordReader(in *os.File, prompts io.Writer) passwordReader {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		return func(prompt string) ([]byte, error) {
			fmt.Fprint(prompts, prompt)
			defer fmt.Fprintln(prompts)
			return term.ReadPassword(fd)
		}
	}
	return lineReader(in)
}

func lineReader(r io.Reader) passwordReader {
	scanner := bufio.NewScanner(r)
	return func(string) ([]byte, error) {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.ErrUnexpectedEOF
		}
		return bytes.TrimRight(scanner.Bytes(), "\r"), nil
	}
}

func validatePassword(password []byte) error {
	switch {
	case len(password) < minPasswordLength:
		return errTooShort
	case len(password) > maxPasswordLength:
		return errTooLong
	}
	return nil
}

// hashPassword reads a password and its confirmation and writes the hash to out.
func hashPassword(read passwordReader, out io.Writer, cost int) error {
	password, err := read("Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = bytes.Clone(password)

	if err := validatePassword(password); err != nil {
		return err
	}

	confirm, err := read("Confirm Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if !bytes.Equal(password, confirm) {
		return errMismatch
	}

	hash, err := bcrypt.GenerateFromPassword(password, cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	_, err = fmt.Fprintln(out, string(hash))
	return err
}

// verifyPassword reads a password and reports whether it matches hash.
func verifyPassword(read passwordReader, out io.Writer, hash string) error {
	if hash == "" {
		return errNoHash
	}

	password, err := read("Password: ")
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errMismatch
		}
		return fmt.Errorf("invalid hash: %w", err)
	}

	_, err = fmt.Fprintln(out, "Password matches.")
	return err
}
