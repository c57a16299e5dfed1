// Command hashpw prints the bcrypt hash of a password, suitable for the
// DASHBOARD_PASSWORD_HASH setting.
package main

import (
	"fmt"
	"log"
	"os"

	"loanpipe-backend/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpw <password>")
		os.Exit(2)
	}
	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(hash)
}
