// Command hashpw prints a bcrypt hash for seeding user accounts.
//
//	hashpw -cost 12 < password.txt
//	echo -n 'admin123' | hashpw
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fastygo/dealerhub/pkg/security"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost factor")
	verify := flag.String("verify", "", "check stdin against this hash instead of hashing")
	flag.Parse()

	if err := run(os.Stdin, os.Stdout, *cost, *verify); err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
}

func run(in io.Reader, out io.Writer, cost int, verify string) error {
	password, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	password = strings.TrimRight(password, "\r\n")

	hasher := security.NewPasswordHasher(cost)
	if verify != "" {
		if !hasher.Verify(password, verify) {
			return fmt.Errorf("password does not match")
		}
		_, err := fmt.Fprintln(out, "ok")
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}
