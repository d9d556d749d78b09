package room

// ChannelServer is a fixed, configured group of channels: one entry in
// the top-level server list, holding an ordered list of channels.
type ChannelServer struct {
	Name     string
	channels []*Channel
}

// Channels returns the server's ordered channel list.
func (s *ChannelServer) Channels() []*Channel { return s.channels }

// Directory is the top-level channel-server tree, bounded at startup.
type Directory struct {
	servers []*ChannelServer
}

// NewDirectory builds a directory from a list of (name, channelCount)
// pairs, one ChannelServer per entry.
func NewDirectory(layout []ChannelServerConfig, catalog SettingsCatalog) *Directory {
	d := &Directory{servers: make([]*ChannelServer, 0, len(layout))}
	for _, cfg := range layout {
		cs := &ChannelServer{Name: cfg.Name}
		for i := 0; i < cfg.ChannelCount; i++ {
			cs.channels = append(cs.channels, NewChannel(i, catalog))
		}
		d.servers = append(d.servers, cs)
	}
	return d
}

// ChannelServerConfig describes one channel server's static layout.
type ChannelServerConfig struct {
	Name         string
	ChannelCount int
}

// ServerCount returns the number of configured channel servers.
func (d *Directory) ServerCount() int { return len(d.servers) }

// GetServerByIndex returns the channel server at serverIdx, bounded.
func (d *Directory) GetServerByIndex(serverIdx int) (*ChannelServer, error) {
	if serverIdx < 0 || serverIdx >= len(d.servers) {
		return nil, ErrChannelBounds
	}
	return d.servers[serverIdx], nil
}

// GetChannelByIndex resolves server[serverIdx].channel[channelIdx], bounded.
func (d *Directory) GetChannelByIndex(serverIdx, channelIdx int) (*Channel, error) {
	s, err := d.GetServerByIndex(serverIdx)
	if err != nil {
		return nil, err
	}
	if channelIdx < 0 || channelIdx >= len(s.channels) {
		return nil, ErrChannelBounds
	}
	return s.channels[channelIdx], nil
}

// ChannelServerSummary describes one channel server for a channel-list snapshot.
type ChannelServerSummary struct {
	Index    int
	Name     string
	Channels []ChannelSummary
}

// ChannelSummary describes one channel for a channel-list snapshot.
type ChannelSummary struct {
	Index     int
	RoomCount int
}

// Snapshot returns a summary of the whole directory, the payload sent to
// a client on entering the channel list.
func (d *Directory) Snapshot() []ChannelServerSummary {
	out := make([]ChannelServerSummary, 0, len(d.servers))
	for si, s := range d.servers {
		chans := make([]ChannelSummary, 0, len(s.channels))
		for _, ch := range s.channels {
			chans = append(chans, ChannelSummary{Index: ch.Index(), RoomCount: len(ch.Rooms())})
		}
		out = append(out, ChannelServerSummary{Index: si, Name: s.Name, Channels: chans})
	}
	return out
}
