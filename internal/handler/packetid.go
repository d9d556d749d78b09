package handler

// Packet ids are a stable fixed enumeration shared with the client; the
// concrete wire layout of individual game packets beyond header and
// framing is opaque to dispatch.
const (
	PacketLogin byte = 0x01
	PacketAboutMe byte = 0x02
	// PacketEnterChannelRequest populates a session's current channel
	// before a NewRoomRequest's "requester in a channel" precondition
	// can hold.
	PacketEnterChannelRequest byte = 0x09

	PacketNewRoomRequest            byte = 0x10
	PacketJoinRoomRequest           byte = 0x11
	PacketLeaveRoomRequest          byte = 0x12
	PacketToggleReadyRequest        byte = 0x13
	PacketUpdateSettingsRequest     byte = 0x14
	PacketSetUserTeamRequest        byte = 0x15
	PacketGameStartCountdownRequest byte = 0x16
	PacketGameStartRequest          byte = 0x17
	PacketOnGameEnd                 byte = 0x18
	PacketOnCloseResultWindow       byte = 0x19
	PacketKickUserRequest           byte = 0x1A
	PacketRoomListRequest           byte = 0x1B

	PacketHostSetInventory   byte = 0x20
	PacketHostSetLoadout     byte = 0x21
	PacketHostSetBuyMenu     byte = 0x22
	PacketHostTeamChanging   byte = 0x23
	PacketHostItemUsing      byte = 0x24

	PacketOptionSetBuyMenu byte = 0x30

	PacketFavoriteSetLoadout   byte = 0x40
	PacketFavoriteSetCosmetics byte = 0x41

	PacketAchievementRequest byte = 0x50

	PacketChatRequest byte = 0x60

	// Server -> client response/notification ids.
	PacketUserStart         byte = 0x81
	PacketAchievementsBlob  byte = 0x82
	PacketFullUserUpdate    byte = 0x83
	PacketInventoryBundle   byte = 0x84
	PacketChannelList       byte = 0x85
	PacketRoomList          byte = 0x86
	PacketJoinNewRoom       byte = 0x87
	PacketRoomSettings      byte = 0x88
	PacketRoomRoster        byte = 0x89
	PacketPlayerJoined      byte = 0x8A
	PacketPlayerLeft        byte = 0x8B
	PacketReadyChanged      byte = 0x8C
	PacketTeamChanged       byte = 0x8D
	PacketCountdownTick     byte = 0x8E
	PacketCountdownAborted  byte = 0x8F
	PacketGameStarted       byte = 0x90
	PacketGameEnded         byte = 0x91
	PacketHostChanged       byte = 0x92
	PacketRoomClosed        byte = 0x93
	PacketSystemDialog      byte = 0x94
	PacketChatMessage       byte = 0x95
)
