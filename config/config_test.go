package config

import (
	"errors"
	"strings"
	"testing"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DB_URL":               "postgres://localhost/ascendancy",
		"SESSION_SECRET":       "session-secret",
		"ADUMO_MERCHANT_ID":    "merchant-1",
		"ADUMO_APPLICATION_ID": "app-1",
		"ADUMO_SECRET":         "shared-secret",
		"ADUMO_CLIENT_ID":      "client",
		"ADUMO_CLIENT_SECRET":  "client-secret",
		"RETURN_URL_BASE":      "https://api.example.com/",
		"NOTIFY_URL_BASE":      "https://api.example.com",
	}
}

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(baseEnv()))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Adumo.BaseURL != AdumoStagingURL {
		t.Errorf("BaseURL = %q, want staging", cfg.Adumo.BaseURL)
	}
	if cfg.Adumo.ReturnURLBase != "https://api.example.com" {
		t.Errorf("ReturnURLBase not trimmed: %q", cfg.Adumo.ReturnURLBase)
	}
	if !strings.HasPrefix(cfg.Adumo.FormURL, AdumoStagingURL) {
		t.Errorf("FormURL = %q", cfg.Adumo.FormURL)
	}
	if cfg.Adumo.Currency != "ZAR" {
		t.Errorf("Currency = %q", cfg.Adumo.Currency)
	}
}

func TestFromEnvProductionSelectsProductionGateway(t *testing.T) {
	env := baseEnv()
	env["ADUMO_ENV"] = "production"
	cfg, err := FromEnv(lookupFrom(env))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Adumo.BaseURL != AdumoProductionURL {
		t.Errorf("BaseURL = %q", cfg.Adumo.BaseURL)
	}
}

func TestFromEnvReportsEveryMissingKey(t *testing.T) {
	env := baseEnv()
	delete(env, "ADUMO_SECRET")
	delete(env, "SESSION_SECRET")
	env["ADUMO_CLIENT_ID"] = "   "

	_, err := FromEnv(lookupFrom(env))
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want *MissingError", err)
	}
	want := map[string]bool{"ADUMO_SECRET": true, "SESSION_SECRET": true, "ADUMO_CLIENT_ID": true}
	if len(missing.Keys) != len(want) {
		t.Fatalf("missing = %v", missing.Keys)
	}
	for _, k := range missing.Keys {
		if !want[k] {
			t.Errorf("unexpected missing key %s", k)
		}
	}
}

func TestFromEnvProductionRequiresSMTP(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"
	_, err := FromEnv(lookupFrom(env))
	if err == nil || !strings.Contains(err.Error(), "SMTP_HOST") {
		t.Fatalf("err = %v, want SMTP_HOST missing", err)
	}
}

func TestFromEnvRejectsUnknownGatewayEnv(t *testing.T) {
	env := baseEnv()
	env["ADUMO_ENV"] = "sandbox"
	if _, err := FromEnv(lookupFrom(env)); err == nil {
		t.Fatal("expected error for unknown ADUMO_ENV")
	}
}
