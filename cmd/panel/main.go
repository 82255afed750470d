package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/codingconcepts/env"
	"github.com/joho/godotenv"
	"github.com/pkg/browser"

	"github.com/radioconexion/site/internal/panelpath"
	"github.com/radioconexion/site/internal/session"
)

const usage = `Usage: panel <command>

Commands:
  url            print the editorial panel's login URL
  open           open the editorial panel's login URL in a browser
  role <token>   show the claims and role the panel would resolve for a token`

type Config struct {
	PanelSeed   string `env:"PANEL_SEED" default:"rva-2025"`
	SiteURL     string `env:"SITE_URL" default:"http://localhost:5001"`
	DefaultRole string `env:"DEFAULT_ROLE"`
}

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("error loading .env file: %v", err)
	}
	config := Config{}
	if err := env.Set(&config); err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if len(os.Args) <= 1 {
		log.Fatal(usage)
	}
	loginURL := strings.TrimRight(config.SiteURL, "/") + panelpath.Login(config.PanelSeed)

	switch os.Args[1] {
	case "url":
		fmt.Println(loginURL)
	case "open":
		fmt.Printf("Opening %s...\n", loginURL)
		if err := browser.OpenURL(loginURL); err != nil {
			log.Fatalf("error opening browser: %v", err)
		}
	case "role":
		if len(os.Args) <= 2 {
			log.Fatal(usage)
		}
		if err := describeToken(os.Args[2], config.DefaultRole); err != nil {
			log.Fatalf("error inspecting token: %v", err)
		}
	default:
		log.Fatal(usage)
	}
}

// describeToken prints what the panel's guard would make of a token. The signature
// is not checked, here or by the panel.
func describeToken(token string, defaultRole string) error {
	claims := session.DecodeJWT(token)
	if claims == nil {
		fmt.Println("Token is not a decodable JWT.")
	} else {
		data, err := json.MarshalIndent(claims, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("Claims:\n%s\n", data)
	}

	if raw, ok := session.ClaimedRole(token); ok {
		fmt.Printf("Claimed role: %s\n", raw)
	} else {
		fmt.Println("Claimed role: (none)")
	}

	store := session.NewMemoryStore()
	if err := store.Set(session.KeyAuthToken, token); err != nil {
		return err
	}
	role, ok := session.New(store, defaultRole).Role()
	if !ok {
		fmt.Println("Resolved role: (none); the panel would deny every guarded page")
		return nil
	}
	fmt.Printf("Resolved role: %s\n", role)
	return nil
}
