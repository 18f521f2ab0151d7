package sequence

// Default starting values. The first issued number is start+1.
const (
	DefaultRegistrationStart int64 = 202600000
	DefaultApplicationStart  int64 = 260000
)

// Config maps sequence names to the value a counter holds when first created.
// Names absent from the map start at zero.
type Config struct {
	Starts map[string]int64
}

// DefaultConfig returns the starting values used by the admissions cycle.
func DefaultConfig() Config {
	return Config{
		Starts: map[string]int64{
			RegistrationNumber: DefaultRegistrationStart,
			ApplicationNumber:  DefaultApplicationStart,
		},
	}
}

// Start returns the configured starting value for name.
func (c Config) Start(name string) int64 {
	return c.Starts[name]
}
