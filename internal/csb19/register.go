package csb19

import "github.com/ginjaninja78/csb19-generator/internal/config"

// Process method key and label of CSB 19 payment journals.
const (
	ProcessMethod      = "csb19"
	ProcessMethodLabel = "CSB 19"
)

// Register adds the CSB 19 process method to the registry. Registering
// twice is a no-op.
func Register(registry *config.Registry) {
	registry.AddProcessMethod(ProcessMethod, ProcessMethodLabel)
}
