package platform

// LifeCycle is a stage of the plugin runtime.
// Stages are entered in declaration order; Disable is entered on shutdown.
type LifeCycle int

const (
	Const LifeCycle = iota // constants are set up, before any service is used
	Init                   // services are resolved
	Load                   // the host is loading plugins
	Enable                 // plugins are enabled
	Active                 // the host finished starting and serves
	Disable                // the host is shutting down
)

// LifeCycles lists every stage in the order they are entered.
var LifeCycles = []LifeCycle{Const, Init, Load, Enable, Active, Disable}

func (l LifeCycle) String() string {
	switch l {
	case Const:
		return "CONST"
	case Init:
		return "INIT"
	case Load:
		return "LOAD"
	case Enable:
		return "ENABLE"
	case Active:
		return "ACTIVE"
	case Disable:
		return "DISABLE"
	}
	return "UNKNOWN"
}
