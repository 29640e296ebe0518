package dfapi

// Settings tune how a chain schedules its work when it is eventually
// materialized.  Zero values mean "use the engine default".
type Settings struct {
	Cache       bool
	Parallel    int
	Workers     int
	MinTaskSize int
	Prefetch    int
}

// Validate checks the settings for nonsense values.
//
// Errors:
//
//    - dataforge-error-settings-invalid -- when a numeric setting is negative.
func (s Settings) Validate() error {
	if s.Parallel < 0 {
		return ErrorSettingsInvalid("parallel", "must not be negative")
	}
	if s.Workers < 0 {
		return ErrorSettingsInvalid("workers", "must not be negative")
	}
	if s.MinTaskSize < 0 {
		return ErrorSettingsInvalid("minTaskSize", "must not be negative")
	}
	if s.Prefetch < 0 {
		return ErrorSettingsInvalid("prefetch", "must not be negative")
	}
	return nil
}

// Override returns s with any non-zero field of other replacing s's value.
func (s Settings) Override(other Settings) Settings {
	if other.Cache {
		s.Cache = true
	}
	if other.Parallel != 0 {
		s.Parallel = other.Parallel
	}
	if other.Workers != 0 {
		s.Workers = other.Workers
	}
	if other.MinTaskSize != 0 {
		s.MinTaskSize = other.MinTaskSize
	}
	if other.Prefetch != 0 {
		s.Prefetch = other.Prefetch
	}
	return s
}
