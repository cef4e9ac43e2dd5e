// Command tokengen mints HS256 bearer tokens for local testing. The service
// itself never issues tokens; in production they come from the real identity
// provider sharing the same secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/screenrate/screenrate/internal/auth"
)

func main() {
	var (
		subject  = flag.String("sub", "", "user id (subject claim), required")
		username = flag.String("username", "", "optional username claim")
		role     = flag.String("role", "", "optional role claim (e.g. admin)")
		ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		secret   = flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to JWT_SECRET)")
	)
	flag.Parse()

	if *subject == "" {
		log.Fatal("-sub is required")
	}
	if *secret == "" {
		log.Fatal("signing secret missing: pass -secret or set JWT_SECRET")
	}

	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
		},
		Username: *username,
		Role:     *role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(signed)
}
