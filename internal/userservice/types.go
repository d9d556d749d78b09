package userservice

// User is the record sourced from the upstream service, keyed by
// numeric id with a unique name.
type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	PlayerName string `json:"playername"`
}

// Bundle is an opaque serialized blob — achievements, inventory,
// cosmetics, loadout, and buy-menu payloads are all carried this way and
// never decoded here, only cached and relayed.
type Bundle []byte
