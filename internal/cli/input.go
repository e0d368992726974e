package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// readSecret prompts on w and reads the identity secret without echo when
// stdin is a terminal. Otherwise the first line of r is used, which lets
// scripts pipe the key in.
func readSecret(r io.Reader, w io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if f, ok := r.(*os.File); ok && f == os.Stdin && isTerminal(fd) {
		if _, err := fmt.Fprint(w, "Enter nsec or hex secret key: "); err != nil {
			return "", err
		}
		b, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}
