package main

import (
	"fmt"
	"log"
	"os"

	"dms/internal/usecase"
)

// hashpw prints a bcrypt hash for the passwordHash field of directory.yaml.
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <password>", os.Args[0])
	}

	hash, err := usecase.HashPassword(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}
