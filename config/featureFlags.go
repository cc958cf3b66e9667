package config

import (
	"os"
	"strings"
)

// CarryOrderTotalOnConfirm makes order confirmation copy the order's stored total
// into the synthesized transaction instead of recomputing it from the order lines.
//
// Set via env:
// - CARRY_ORDER_TOTAL_ON_CONFIRM=true
func CarryOrderTotalOnConfirm() bool {
	return boolFromEnv("CARRY_ORDER_TOTAL_ON_CONFIRM")
}

// StorageBackend selects the persistence collaborator: "mysql" or "memory" (default).
func StorageBackend() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("STORAGE_BACKEND")))
	if v == "" {
		return "memory"
	}
	return v
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}

func boolFromEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
