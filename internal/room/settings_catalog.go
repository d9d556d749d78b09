package room

// SettingsCatalog is the recognized enum of option values a settings
// update is validated against, field by field. DefaultCatalog is the
// populated built-in instance covering the common Terror/Counter match
// modes.
type SettingsCatalog struct {
	Modes           map[int32]bool
	Maps            map[int32]bool
	MinKillLimit    int32
	MaxKillLimit    int32
	MinWinLimit     int32
	MaxWinLimit     int32
}

// Game mode identifiers recognized by DefaultCatalog.
const (
	ModeDeathmatch   int32 = 0
	ModeTeamDeathmatch int32 = 1
	ModeBombDefusal  int32 = 2
	ModeHostageRescue int32 = 3
)

// DefaultCatalog is the built-in settings catalog; the server builds its
// directory with it and has no configuration override for it.
var DefaultCatalog = SettingsCatalog{
	Modes: map[int32]bool{
		ModeDeathmatch:     true,
		ModeTeamDeathmatch: true,
		ModeBombDefusal:    true,
		ModeHostageRescue:  true,
	},
	Maps: map[int32]bool{
		0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true,
	},
	MinKillLimit: 1,
	MaxKillLimit: 99,
	MinWinLimit:  1,
	MaxWinLimit:  30,
}

// Validate reports whether s's fields all fall within the catalog's
// recognized ranges/enums.
func (c SettingsCatalog) Validate(s Settings) error {
	if len(s.Name) == 0 || len(s.Name) > 0xFF {
		return ErrBadSettings
	}
	if !c.Modes[s.Mode] {
		return ErrBadSettings
	}
	if !c.Maps[s.Map] {
		return ErrBadSettings
	}
	if s.KillLimit < c.MinKillLimit || s.KillLimit > c.MaxKillLimit {
		return ErrBadSettings
	}
	if s.WinLimit < c.MinWinLimit || s.WinLimit > c.MaxWinLimit {
		return ErrBadSettings
	}
	return nil
}
