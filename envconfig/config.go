// config.go - Haupt-Konfigurationsfunktionen fuer fusedtensor
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host fuer den serve-Befehl zurueck (FUSEDTENSOR_HOST)
// - Backend: Gibt das gewaehlte gpuapi.Device-Backend zurueck (FUSEDTENSOR_BACKEND)
// - DispatchTimeout: Gibt das Timeout fuer einen einzelnen Dispatch zurueck (FUSEDTENSOR_DISPATCH_TIMEOUT)
// - LogLevel: Gibt das Log-Level zurueck (FUSEDTENSOR_DEBUG)
//
// Weitere Konfigurationen sind ausgelagert:
// - config_features.go: Feature-Flags (Fusion, Trace)
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"log/slog"
	"math"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Host gibt Scheme und Host fuer den serve-Befehl zurueck
// Konfigurierbar via FUSEDTENSOR_HOST
// Default: http://127.0.0.1:11535
func Host() *url.URL {
	defaultPort := "11535"

	s := strings.TrimSpace(Var("FUSEDTENSOR_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// Backend gibt das zu verwendende gpuapi.Device-Backend zurueck
// Konfigurierbar via FUSEDTENSOR_BACKEND ("software" oder "wgpu")
// Default: "software"
// Der Wert wird von keinem Befehl ausgewertet.
func Backend() string {
	if s := Var("FUSEDTENSOR_BACKEND"); s != "" {
		return s
	}
	return "software"
}

// DispatchTimeout gibt das Timeout fuer einen einzelnen Dispatch zurueck
// Konfigurierbar via FUSEDTENSOR_DISPATCH_TIMEOUT
// 0 oder negative Werte = unendlich
// Default: 30 Sekunden
// Der Wert wird von keinem Befehl ausgewertet; kein Dispatch wird abgebrochen.
func DispatchTimeout() (timeout time.Duration) {
	timeout = 30 * time.Second
	if s := Var("FUSEDTENSOR_DISPATCH_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			timeout = d
		} else if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			timeout = time.Duration(n) * time.Second
		}
	}

	if timeout <= 0 {
		return time.Duration(math.MaxInt64)
	}

	return timeout
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via FUSEDTENSOR_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("FUSEDTENSOR_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
