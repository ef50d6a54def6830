// Prints a SELLER_PASSWORD_HASH value for the seller dashboard login.
//
//	go run scripts/generate_password.go <password>
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/your-org/storefront/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	password := os.Args[1]
	cost := 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if c, err := strconv.Atoi(v); err == nil {
			cost = c
		}
	}

	passwords := auth.NewPasswordManager(cost)
	hash, err := passwords.HashPassword(password)
	if err != nil {
		log.Fatal("Error generating hash: ", err)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed: ", err)
	}

	fmt.Printf("SELLER_PASSWORD_HASH=%s\n", hash)
	fmt.Println("✅ Hash verified successfully!")
}
