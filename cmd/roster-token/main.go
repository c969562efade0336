// Command roster-token mints a signed bearer token for local calls to the
// roster API.
//
//	JWT_SECRET=dev roster-token -role Administrator -sub ana
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/atica/user-roster/internal/platform/token"
)

func main() {
	_ = godotenv.Load()

	role := flag.String("role", "User", "role claim carried by the token")
	sub := flag.String("sub", "dev", "subject claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to $JWT_SECRET)")
	flag.Parse()

	raw, err := token.Issue(*secret, *sub, *role, *ttl, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(raw)
}
