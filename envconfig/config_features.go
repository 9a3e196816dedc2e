// config_features.go - Feature-Flags fuer fusedtensor
//
// Dieses Modul enthaelt:
// - Feature-Flags, die das Fusion- und Dispatch-Verhalten steuern
package envconfig

// =============================================================================
// Feature-Flags
// =============================================================================

var (
	// DisableFusion schaltet F2 (Absorption in Reduce/PairWise) ab; jede
	// ElementWise-Kette wird dann ueber den eigenstaendigen Kernel
	// materialisiert. Nur fuer Debugging/Benchmarking gedacht.
	DisableFusion = BoolWithDefault("FUSEDTENSOR_DISABLE_FUSION")

	// TraceDispatch liest FUSEDTENSOR_TRACE_DISPATCH. Der Wert wird von
	// keinem Befehl ausgewertet; es entstehen keine zusaetzlichen
	// Dispatch-Logs.
	TraceDispatch = Bool("FUSEDTENSOR_TRACE_DISPATCH")
)

// =============================================================================
// Shader-Codegen-Einstellungen
// =============================================================================

var (
	// TileSize ueberschreibt shader.DefaultTile fuer den eigenstaendigen
	// ElementWise-Kernel (kernel.ElementWise), sowohl im dense- als auch
	// im strided-Pfad. Konfigurierbar via FUSEDTENSOR_TILE_SIZE.
	TileSize = Uint("FUSEDTENSOR_TILE_SIZE", 4)
)

// =============================================================================
// Server-Einstellungen (cmd/fusedtensor serve)
// =============================================================================

var (
	// MaxQueue liest das Limit fuer wartende Resolve-Anfragen.
	// Konfigurierbar via FUSEDTENSOR_MAX_QUEUE. Der serve-Befehl wertet
	// den Wert nicht aus und begrenzt keine Anfragen.
	MaxQueue = Uint("FUSEDTENSOR_MAX_QUEUE", 256)
)
