// Command realm-check sends one request through a running gatekeeper and prints
// the outcome. The token is built locally and left unsigned, since the
// gatekeeper does not verify signatures.
package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <realm> [server-addr] [path]", os.Args[0])
	}

	realm := os.Args[1]
	serverAddr := "http://localhost:8000"
	if len(os.Args) > 2 {
		serverAddr = "http://localhost" + os.Args[2]
	}
	path := "/question"
	if len(os.Args) > 3 {
		path = os.Args[3]
	}

	payload, err := json.Marshal(map[string]string{"realm": realm, "sub": "realm-check"})
	if err != nil {
		log.Fatalf("Failed to encode claims: %v", err)
	}
	enc := base64.RawURLEncoding
	token := enc.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`)) + "." + enc.EncodeToString(payload) + ".unsigned"

	req, err := http.NewRequest(http.MethodGet, serverAddr+path, nil)
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		fmt.Println("✅ Request ALLOWED")
	case http.StatusUnauthorized:
		fmt.Println("❌ Token rejected")
	case http.StatusForbidden:
		fmt.Println("❌ Denied by gatekeeper")
	default:
		fmt.Println("⚠️  Gatekeeper unavailable")
	}
	fmt.Printf("Status: %d\n", resp.StatusCode)
	fmt.Printf("Body: %s\n", string(body))
}
