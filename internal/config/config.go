// Package config loads process configuration from .env-style files and the
// environment, then fails fast on anything the process cannot safely start
// without.
package config

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Config is the fully resolved, validated process configuration.
type Config struct {
	SupabaseURL         string
	SupabaseServiceRole string

	ServerHost string
	ServerPort string

	WWebJSDataPath         string
	PuppeteerExecutablePath string

	ReceiptsBucket string
	MPForceX1000   bool
}

// LoadEnvFile reads KEY=VALUE pairs from filename into the process
// environment, without overriding variables already set. Missing files are
// skipped silently — callers load several optional layers in order.
func LoadEnvFile(filename string) {
	file, err := os.Open(filename)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	log.Printf("DEBUG: config: loaded environment from %s", filename)
}

// Load reads the full configuration from the environment and validates the
// Supabase service-role key. It exits the process (config-fatal) on a
// missing required variable or a malformed/mismatched credential.
func Load() Config {
	cfg := Config{
		SupabaseURL:             requireEnv("SUPABASE_URL"),
		SupabaseServiceRole:     requireEnv("SUPABASE_SERVICE_ROLE"),
		ServerHost:              getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:              getEnv("SERVER_PORT", "4000"),
		WWebJSDataPath:          getEnv("WWEBJS_DATA_PATH", "./.wwebjs_auth"),
		PuppeteerExecutablePath: os.Getenv("PUPPETEER_EXECUTABLE_PATH"),
		ReceiptsBucket:          getEnv("RECEIPTS_BUCKET", "receipts"),
		MPForceX1000:            getBoolEnv("MP_FORCE_X1000", true),
	}

	if err := validateServiceRole(cfg.SupabaseURL, cfg.SupabaseServiceRole); err != nil {
		log.Fatalf("FATAL: config: invalid SUPABASE_SERVICE_ROLE: %v", err)
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("FATAL: config: missing required environment variable %s", key)
	}
	return v
}

func getBoolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// serviceRoleClaims is the slice of the Supabase JWT payload this process
// cares about; the signature itself is not verified — Supabase already
// vouches for the key's authenticity, this check only catches
// misconfiguration (pasting the wrong project's key).
type serviceRoleClaims struct {
	Ref  string `json:"ref"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func validateServiceRole(supabaseURL, serviceRoleKey string) error {
	u, err := url.Parse(supabaseURL)
	if err != nil {
		return fmt.Errorf("parse SUPABASE_URL: %w", err)
	}
	subdomain := strings.Split(u.Hostname(), ".")[0]

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	var claims serviceRoleClaims
	if _, _, err := parser.ParseUnverified(serviceRoleKey, &claims); err != nil {
		return fmt.Errorf("decode service-role JWT: %w", err)
	}

	if claims.Ref != subdomain {
		return fmt.Errorf("service-role ref %q does not match project %q", claims.Ref, subdomain)
	}
	if claims.Role != "service_role" {
		return fmt.Errorf("service-role key has role %q, want service_role", claims.Role)
	}

	return nil
}
