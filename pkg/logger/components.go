package logger

// Component name constants for standardized logging
const (
	// Core components
	ComponentGameEngine  = "GameEngine"
	ComponentSessionFSM  = "SessionFSM"
	ComponentEventBus    = "EventBus"
	ComponentLedger      = "Ledger"
	ComponentRegistry    = "Registry"

	// Engines
	ComponentInjectionEngine   = "InjectionEngine"
	ComponentObservationEngine = "ObservationEngine"
	ComponentResetCoordinator  = "ResetCoordinator"

	// Surfaces
	ComponentAPIServer     = "APIServer"
	ComponentConfigManager = "ConfigManager"
	ComponentPlatform      = "Platform"
)
